package ccda

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Mapper extracts the flat import bundle from a CDA document. It is safe
// for concurrent use because it holds no mutable state.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// Map deserializes a CDA document and extracts the import bundle. Quality
// report documents (QRDA Category I) read their patient-data section from
// structured-body component index 2; every other document walks all
// sections. Absent optional nodes map to empty fields, never errors.
func (m *Mapper) Map(xmlData []byte) (*Bundle, error) {
	if len(xmlData) == 0 {
		return nil, fmt.Errorf("ccda: document is empty")
	}

	var doc ClinicalDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return nil, fmt.Errorf("ccda: parse document: %w", err)
	}

	b := &Bundle{DocType: docType(&doc)}
	m.mapHeader(&doc, b)

	if doc.Component == nil || doc.Component.StructuredBody == nil {
		return b, nil
	}
	components := doc.Component.StructuredBody.Components
	if b.DocType == DocTypeQRDA && len(components) > 2 {
		components = components[2:3]
	}
	for _, comp := range components {
		if comp.Section != nil {
			m.mapSection(comp.Section, b)
		}
	}
	return b, nil
}

// docType discriminates quality reports from general clinical summaries.
// Unknown template ids take the general path.
func docType(doc *ClinicalDocument) string {
	for _, t := range doc.TemplateIDs {
		if t.Root == OIDQRDADocument {
			return DocTypeQRDA
		}
	}
	return DocTypeCCD
}

func (m *Mapper) mapHeader(doc *ClinicalDocument, b *Bundle) {
	m.mapPatient(doc, b)

	if len(doc.Authors) > 0 {
		b.Author = mapAuthor(&doc.Authors[0])
	}
	if doc.DataEnterer != nil {
		b.DataEnterer = mapContact(doc.DataEnterer.AssignedEntity)
	}
	for _, inf := range doc.Informants {
		if inf.AssignedEntity != nil {
			b.Informant = mapContact(inf.AssignedEntity)
			break
		}
	}
	if doc.Custodian != nil && doc.Custodian.AssignedCustodian != nil {
		b.Custodian = mapCustodian(doc.Custodian.AssignedCustodian.RepresentedCustodianOrganization)
	}
	if doc.DocumentationOf != nil && doc.DocumentationOf.ServiceEvent != nil {
		b.DocumentationOf = performerText(doc.DocumentationOf.ServiceEvent.Performers)
	}
}

func (m *Mapper) mapPatient(doc *ClinicalDocument, b *Bundle) {
	if doc.RecordTarget == nil || doc.RecordTarget.PatientRole == nil {
		return
	}
	role := doc.RecordTarget.PatientRole
	p := &b.Patient

	if len(role.IDs) > 0 {
		p.Pubpid = role.IDs[0].Extension
	}
	if len(role.IDs) > 1 {
		p.SS = role.IDs[1].Extension
	}
	if len(role.Addrs) > 0 {
		addr := role.Addrs[0]
		p.Street = addr.StreetAddress
		p.City = addr.City
		p.State = addr.State
		p.PostalCode = addr.PostalCode
		p.CountryCode = addr.Country
	}
	if len(role.Telecoms) > 0 {
		p.PhoneHome = DigitsOnly(role.Telecoms[0].Value)
	}

	pat := role.Patient
	if pat == nil {
		return
	}
	if name := legalName(pat.Names); name != nil {
		if len(name.Given) > 0 {
			p.Fname = name.Given[0]
		}
		p.Lname = name.Family
	}
	if g := pat.AdministrativeGenderCode; g != nil {
		p.Sex = g.DisplayName
		if p.Sex == "" {
			switch g.Code {
			case "F":
				p.Sex = "Female"
			case "M":
				p.Sex = "Male"
			}
		}
	}
	if pat.BirthTime != nil {
		p.DOB = pat.BirthTime.Value
	}
	if pat.MaritalStatusCode != nil {
		p.Status = pat.MaritalStatusCode.DisplayName
	}
	if pat.ReligiousAffiliationCode != nil {
		p.Religion = pat.ReligiousAffiliationCode.DisplayName
	}
	if pat.RaceCode != nil {
		p.Race = pat.RaceCode.DisplayName
	}
	if pat.EthnicGroupCode != nil {
		p.Ethnicity = pat.EthnicGroupCode.DisplayName
	}
}

// legalName prefers the name flagged legal (use="L"), else the first.
func legalName(names []Name) *Name {
	for i := range names {
		if names[i].Use == "L" {
			return &names[i]
		}
	}
	if len(names) > 0 {
		return &names[0]
	}
	return nil
}

func mapAuthor(a *Author) AuthorFields {
	var f AuthorFields
	if a.Time != nil {
		f.Time = a.Time.Value
	}
	if a.AssignedAuthor == nil {
		return f
	}
	c := mapContact(a.AssignedAuthor)
	f.Extension = c.Extension
	f.Address = c.Address
	f.City = c.City
	f.State = c.State
	f.PostalCode = c.PostalCode
	f.Country = c.Country
	f.Phone = c.Phone
	f.Given = c.Given
	f.Family = c.Family
	return f
}

func mapContact(e *AssignedEntity) ContactFields {
	var f ContactFields
	if e == nil {
		return f
	}
	if len(e.IDs) > 0 {
		f.Extension = e.IDs[0].Extension
	}
	if len(e.Addrs) > 0 {
		f.Address = e.Addrs[0].StreetAddress
		f.City = e.Addrs[0].City
		f.State = e.Addrs[0].State
		f.PostalCode = e.Addrs[0].PostalCode
		f.Country = e.Addrs[0].Country
	}
	if len(e.Telecoms) > 0 {
		f.Phone = DigitsOnly(e.Telecoms[0].Value)
	}
	if e.AssignedPerson != nil {
		if name := legalName(e.AssignedPerson.Names); name != nil {
			if len(name.Given) > 0 {
				f.Given = name.Given[0]
			}
			f.Family = name.Family
		}
	}
	return f
}

func mapCustodian(org *CustodianOrganization) CustodianFields {
	var f CustodianFields
	if org == nil {
		return f
	}
	f.Organization = org.Name
	if len(org.Addrs) > 0 {
		f.Address = org.Addrs[0].StreetAddress
		f.City = org.Addrs[0].City
		f.State = org.Addrs[0].State
		f.PostalCode = org.Addrs[0].PostalCode
		f.Country = org.Addrs[0].Country
	}
	if len(org.Telecoms) > 0 {
		f.Phone = DigitsOnly(org.Telecoms[0].Value)
	}
	return f
}

// performerText assembles the documented performer string: non-empty
// prefix/given/family/organization tokens in that order, space-joined.
// Multi-valued tokens (several given names, several organization names) are
// skipped rather than guessed at.
func performerText(performers []Performer) string {
	var tokens []string
	for _, perf := range performers {
		e := perf.AssignedEntity
		if e == nil {
			continue
		}
		if e.AssignedPerson != nil {
			if name := legalName(e.AssignedPerson.Names); name != nil {
				if name.Prefix != "" {
					tokens = append(tokens, name.Prefix)
				}
				if len(name.Given) == 1 && name.Given[0] != "" {
					tokens = append(tokens, name.Given[0])
				}
				if name.Family != "" {
					tokens = append(tokens, name.Family)
				}
			}
		}
		if e.RepresentedOrganization != nil && len(e.RepresentedOrganization.Names) == 1 &&
			e.RepresentedOrganization.Names[0] != "" {
			tokens = append(tokens, e.RepresentedOrganization.Names[0])
		}
	}
	return strings.Join(tokens, " ")
}

func (m *Mapper) mapSection(section *Section, b *Bundle) {
	if section.Code == nil {
		return
	}
	switch section.Code.Code {
	case LOINCProblems:
		b.Problems = append(b.Problems, mapProblems(section)...)
	case LOINCAllergies:
		b.Allergies = append(b.Allergies, mapAllergies(section)...)
	case LOINCMedications:
		b.Medications = append(b.Medications, mapMedications(section)...)
	case LOINCImmunizations:
		b.Immunizations = append(b.Immunizations, mapImmunizations(section)...)
	case LOINCEncounters:
		b.Encounters = append(b.Encounters, mapEncounters(section)...)
	case LOINCVitalSigns:
		b.Vitals = append(b.Vitals, mapVitals(section)...)
	case LOINCSocialHistory:
		b.SocialHistories = append(b.SocialHistories, mapSocialHistory(section))
	case LOINCProcedures:
		b.Procedures = append(b.Procedures, mapProcedures(section)...)
	case LOINCResults:
		b.LabResults = append(b.LabResults, mapLabResults(section)...)
	case LOINCPlanOfCare:
		b.CarePlans = append(b.CarePlans, mapCarePlans(section)...)
	case LOINCFunctionalStatus:
		b.FunctionalStatuses = append(b.FunctionalStatuses, mapFunctionalStatuses(section)...)
	case LOINCReferralReason:
		if r, ok := mapReferral(section); ok {
			b.Referrals = append(b.Referrals, r)
		}
	}
}

func mapProblems(section *Section) []ProblemFields {
	var out []ProblemFields
	for _, e := range section.Entries {
		act := e.Act
		if act == nil {
			continue
		}
		var f ProblemFields
		if len(act.IDs) > 0 {
			f.Extension = act.IDs[0].Extension
			f.Root = act.IDs[0].Root
		}
		f.Begdate, f.Enddate = rangeValues(act.EffectiveTime)
		if act.StatusCode != nil {
			f.Status = act.StatusCode.Code
		}
		for _, er := range act.EntryRelationships {
			obs := er.Observation
			if obs == nil {
				continue
			}
			if obs.Value != nil && f.DiagnosisCode == "" {
				f.DiagnosisCode = obs.Value.Code
				f.Title = obs.Value.DisplayName
			}
			// Nested status observation carries the problem outcome.
			for _, nested := range obs.EntryRelationships {
				if nested.Observation != nil && nested.Observation.Value != nil {
					f.Observation = nested.Observation.Value.Code
					f.ObservationText = nested.Observation.Value.DisplayName
				}
			}
		}
		out = append(out, f)
	}
	return out
}

func mapAllergies(section *Section) []AllergyFields {
	var out []AllergyFields
	for _, e := range section.Entries {
		act := e.Act
		if act == nil {
			continue
		}
		var f AllergyFields
		if len(act.IDs) > 0 {
			f.Extension = act.IDs[0].Extension
		}
		f.Begdate, f.Enddate = rangeValues(act.EffectiveTime)
		if act.StatusCode != nil {
			f.Status = act.StatusCode.Code
		}
		for _, er := range act.EntryRelationships {
			obs := er.Observation
			if obs == nil {
				continue
			}
			if obs.Participant != nil && obs.Participant.ParticipantRole != nil &&
				obs.Participant.ParticipantRole.PlayingEntity != nil {
				if code := obs.Participant.ParticipantRole.PlayingEntity.Code; code != nil {
					f.Code = code.Code
					f.Title = code.DisplayName
					f.CodeSystemName = code.CodeSystemName
				}
			}
			for _, nested := range obs.EntryRelationships {
				no := nested.Observation
				if no == nil || no.Value == nil {
					continue
				}
				if no.Code != nil && no.Code.Code == "SEV" {
					f.Severity = no.Value.Code
				} else {
					f.Reaction = no.Value.Code
					f.ReactionText = no.Value.DisplayName
				}
			}
		}
		out = append(out, f)
	}
	return out
}

func mapMedications(section *Section) []MedicationFields {
	var out []MedicationFields
	for _, e := range section.Entries {
		sa := e.SubstanceAdministration
		if sa == nil {
			continue
		}
		var f MedicationFields
		if len(sa.IDs) > 0 {
			f.Extension = sa.IDs[0].Extension
			f.Root = sa.IDs[0].Root
		}
		for _, et := range sa.EffectiveTimes {
			if et.Low != nil || et.High != nil {
				lo, hi := rangeValues(&et)
				if f.Begdate == "" {
					f.Begdate = lo
				}
				if f.Enddate == "" {
					f.Enddate = hi
				}
			}
		}
		if sa.RouteCode != nil {
			f.Route = sa.RouteCode.Code
			f.RouteDisplay = sa.RouteCode.DisplayName
		}
		if sa.DoseQuantity != nil {
			f.Dose = sa.DoseQuantity.Value
			f.DoseUnit = sa.DoseQuantity.Unit
		}
		if sa.RateQuantity != nil {
			f.Rate = sa.RateQuantity.Value
			f.RateUnit = sa.RateQuantity.Unit
		}
		if sa.StatusCode != nil && (sa.StatusCode.Code == "completed" || sa.StatusCode.Code == "aborted") {
			f.Discontinue = "1"
		}
		if code := materialCode(sa.Consumable); code != nil {
			f.DrugCode = code.Code
			f.DrugText = code.DisplayName
		}
		if sa.Precondition != nil && sa.Precondition.Criterion != nil &&
			sa.Precondition.Criterion.Value != nil {
			f.PRN = sa.Precondition.Criterion.Value.DisplayName
		}
		for _, er := range sa.EntryRelationships {
			if er.TypeCode == "RSON" && er.Observation != nil && er.Observation.Value != nil {
				f.Indication = er.Observation.Value.DisplayName
			}
			if er.Act != nil && er.Act.Code != nil && er.Act.Code.Code == "PINSTRUCT" {
				f.Note = er.Act.Code.DisplayName
			}
		}
		if len(sa.Performers) > 0 && sa.Performers[0].AssignedEntity != nil {
			pe := sa.Performers[0].AssignedEntity
			c := mapContact(pe)
			f.ProviderNPI = c.Extension
			f.ProviderFname = c.Given
			f.ProviderLname = c.Family
			f.ProviderAddress = c.Address
			f.ProviderCity = c.City
			f.ProviderState = c.State
			f.ProviderPostalCode = c.PostalCode
			f.ProviderCountry = c.Country
			if len(pe.IDs) > 0 {
				f.ProviderRoot = pe.IDs[0].Root
			}
		}
		out = append(out, f)
	}
	return out
}

// materialCode digs the drug or vaccine code out of a consumable. Any
// missing link in the chain yields nil.
func materialCode(c *Consumable) *Code {
	if c == nil || c.ManufacturedProduct == nil || c.ManufacturedProduct.ManufacturedMaterial == nil {
		return nil
	}
	return c.ManufacturedProduct.ManufacturedMaterial.Code
}

func mapImmunizations(section *Section) []ImmunizationFields {
	var out []ImmunizationFields
	for _, e := range section.Entries {
		sa := e.SubstanceAdministration
		if sa == nil {
			continue
		}
		var f ImmunizationFields
		if len(sa.IDs) > 0 {
			f.Extension = sa.IDs[0].Extension
			f.Root = sa.IDs[0].Root
		}
		for _, et := range sa.EffectiveTimes {
			if et.Value != "" {
				f.AdministeredDate = et.Value
				break
			}
			if et.Low != nil && et.Low.Value != "" {
				f.AdministeredDate = et.Low.Value
				break
			}
		}
		if sa.RouteCode != nil {
			f.RouteCode = sa.RouteCode.Code
			f.RouteText = sa.RouteCode.DisplayName
		}
		if sa.DoseQuantity != nil {
			f.Amount = sa.DoseQuantity.Value
			f.AmountUnit = sa.DoseQuantity.Unit
		}
		if sa.StatusCode != nil {
			f.CompletionStatus = sa.StatusCode.Code
		}
		if code := materialCode(sa.Consumable); code != nil {
			f.CVXCode = code.Code
			f.CVXText = code.DisplayName
		}
		if sa.Consumable != nil && sa.Consumable.ManufacturedProduct != nil {
			if mo := sa.Consumable.ManufacturedProduct.ManufacturerOrganization; mo != nil && len(mo.Names) > 0 {
				f.Manufacturer = mo.Names[0]
			}
		}
		if len(sa.Performers) > 0 && sa.Performers[0].AssignedEntity != nil {
			pe := sa.Performers[0].AssignedEntity
			c := mapContact(pe)
			f.ProviderNPI = c.Extension
			f.ProviderName = strings.TrimSpace(c.Given + " " + c.Family)
			f.ProviderAddress = c.Address
			f.ProviderCity = c.City
			f.ProviderState = c.State
			f.ProviderPostalCode = c.PostalCode
			f.ProviderCountry = c.Country
			f.ProviderTelecom = c.Phone
			if org := pe.RepresentedOrganization; org != nil {
				if len(org.Names) > 0 {
					f.Organization = org.Names[0]
				}
				if len(org.Telecoms) > 0 {
					f.OrganizationTele = DigitsOnly(org.Telecoms[0].Value)
				}
			}
		}
		out = append(out, f)
	}
	return out
}

func mapEncounters(section *Section) []EncounterFields {
	var out []EncounterFields
	for _, e := range section.Entries {
		enc := e.Encounter
		if enc == nil {
			continue
		}
		var f EncounterFields
		if len(enc.IDs) > 0 {
			f.Extension = enc.IDs[0].Extension
			f.Root = enc.IDs[0].Root
		}
		if enc.EffectiveTime != nil {
			f.Date = pointValue(enc.EffectiveTime)
		}
		if len(enc.Performers) > 0 && enc.Performers[0].AssignedEntity != nil {
			c := mapContact(enc.Performers[0].AssignedEntity)
			f.ProviderNPI = c.Extension
			f.ProviderName = strings.TrimSpace(c.Given + " " + c.Family)
			f.ProviderAddress = c.Address
			f.ProviderCity = c.City
			f.ProviderState = c.State
			f.ProviderPostalCode = c.PostalCode
			f.ProviderCountry = c.Country
		}
		for _, part := range enc.Participants {
			role := part.ParticipantRole
			if role == nil || part.TypeCode != "LOC" {
				continue
			}
			if role.PlayingEntity != nil {
				f.FacilityName = role.PlayingEntity.Name
			}
			if len(role.Addrs) > 0 {
				f.FacilityAddress = role.Addrs[0].StreetAddress
				f.FacilityCity = role.Addrs[0].City
				f.FacilityState = role.Addrs[0].State
				f.FacilityZip = role.Addrs[0].PostalCode
				f.FacilityCountry = role.Addrs[0].Country
			}
			if len(role.Telecoms) > 0 {
				f.FacilityTelecom = DigitsOnly(role.Telecoms[0].Value)
			}
		}
		for _, er := range enc.EntryRelationships {
			obs := diagnosisObservation(er)
			if obs == nil || obs.Value == nil {
				continue
			}
			f.DiagnosisCode = obs.Value.Code
			f.DiagnosisIssue = obs.Value.DisplayName
			if obs.EffectiveTime != nil {
				f.DiagnosisDate = pointValue(obs.EffectiveTime)
			}
		}
		out = append(out, f)
	}
	return out
}

// diagnosisObservation digs the encounter-diagnosis observation out of its
// wrapping act, or takes a bare observation.
func diagnosisObservation(er EntryRelationship) *ObservationEntry {
	if er.Observation != nil {
		return er.Observation
	}
	if er.Act != nil {
		for _, nested := range er.Act.EntryRelationships {
			if nested.Observation != nil {
				return nested.Observation
			}
		}
	}
	return nil
}

// LOINC codes for individual vital-sign observations.
var vitalCodes = map[string]string{
	"8310-5":  "temperature",
	"8462-4":  "bpd",
	"8480-6":  "bps",
	"8287-5":  "head_circ",
	"8867-4":  "pulse",
	"8302-2":  "height",
	"2710-2":  "oxygen_saturation",
	"59408-5": "oxygen_saturation",
	"9279-1":  "respiration",
	"3141-9":  "weight",
	"29463-7": "weight",
}

func mapVitals(section *Section) []VitalsFields {
	var out []VitalsFields
	for _, e := range section.Entries {
		org := e.Organizer
		if org == nil {
			continue
		}
		var f VitalsFields
		if len(org.IDs) > 0 {
			f.Extension = org.IDs[0].Extension
		}
		if org.EffectiveTime != nil {
			f.Date = pointValue(org.EffectiveTime)
		}
		for _, comp := range org.Components {
			obs := comp.Observation
			if obs == nil || obs.Code == nil || obs.Value == nil {
				continue
			}
			switch vitalCodes[obs.Code.Code] {
			case "temperature":
				f.Temperature = obs.Value.Value
			case "bpd":
				f.BPD = obs.Value.Value
			case "bps":
				f.BPS = obs.Value.Value
			case "head_circ":
				f.HeadCirc = obs.Value.Value
			case "pulse":
				f.Pulse = obs.Value.Value
			case "height":
				f.Height = obs.Value.Value
			case "oxygen_saturation":
				f.OxygenSaturation = obs.Value.Value
			case "respiration":
				f.Respiration = obs.Value.Value
			case "weight":
				f.Weight = obs.Value.Value
			}
		}
		out = append(out, f)
	}
	return out
}

func mapSocialHistory(section *Section) SocialHistoryFields {
	var f SocialHistoryFields
	for _, e := range section.Entries {
		obs := e.Observation
		if obs == nil || obs.Code == nil {
			continue
		}
		date := ""
		if obs.EffectiveTime != nil {
			date = pointValue(obs.EffectiveTime)
		}
		switch obs.Code.Code {
		case "72166-2": // tobacco smoking status
			f.TobaccoNote = obs.Text
			f.TobaccoDate = date
			if obs.Value != nil {
				f.TobaccoStatus = obs.Value.DisplayName
				f.TobaccoSNOMED = obs.Value.Code
			}
		case "11331-6": // history of alcohol use
			f.AlcoholNote = obs.Text
			f.AlcoholDate = date
			if obs.Value != nil {
				f.AlcoholStatus = obs.Value.DisplayName
			}
		}
	}
	return f
}

func mapProcedures(section *Section) []ProcedureFields {
	var out []ProcedureFields
	for _, e := range section.Entries {
		proc := e.Procedure
		if proc == nil {
			continue
		}
		var f ProcedureFields
		if len(proc.IDs) > 0 {
			f.Extension = proc.IDs[0].Extension
			f.Root = proc.IDs[0].Root
		}
		if proc.Code != nil {
			f.Code = proc.Code.Code
			f.CodeText = proc.Code.DisplayName
			f.CodeSystemName = proc.Code.CodeSystemName
		}
		if proc.EffectiveTime != nil {
			f.Date = pointValue(proc.EffectiveTime)
		}
		if len(proc.Performers) > 0 {
			if org, addr, tele := performerOrg(proc.Performers[0]); org != "" {
				f.Organization1 = org
				f.OrganizationAddress1 = addr.StreetAddress
				f.OrganizationCity1 = addr.City
				f.OrganizationState1 = addr.State
				f.OrganizationPostalCode1 = addr.PostalCode
				f.OrganizationCountry1 = addr.Country
				f.OrganizationTelecom1 = tele
			}
		}
		if len(proc.Performers) > 1 {
			if org, addr, _ := performerOrg(proc.Performers[1]); org != "" {
				f.Organization2 = org
				f.OrganizationAddress2 = addr.StreetAddress
				f.OrganizationCity2 = addr.City
				f.OrganizationState2 = addr.State
				f.OrganizationPostalCode2 = addr.PostalCode
				f.OrganizationCountry2 = addr.Country
			}
		}
		out = append(out, f)
	}
	return out
}

func performerOrg(p Performer) (name string, addr Address, tele string) {
	if p.AssignedEntity == nil || p.AssignedEntity.RepresentedOrganization == nil {
		return "", Address{}, ""
	}
	org := p.AssignedEntity.RepresentedOrganization
	if len(org.Names) > 0 {
		name = org.Names[0]
	}
	if len(org.Addrs) > 0 {
		addr = org.Addrs[0]
	}
	if len(org.Telecoms) > 0 {
		tele = DigitsOnly(org.Telecoms[0].Value)
	}
	return name, addr, tele
}

func mapLabResults(section *Section) []LabResultFields {
	var out []LabResultFields
	for _, e := range section.Entries {
		org := e.Organizer
		if org == nil {
			continue
		}
		procCode, procText, ext := "", "", ""
		if org.Code != nil {
			procCode = org.Code.Code
			procText = org.Code.DisplayName
		}
		if len(org.IDs) > 0 {
			ext = org.IDs[0].Extension
		}
		date, status := "", ""
		if org.EffectiveTime != nil {
			date = pointValue(org.EffectiveTime)
		}
		if org.StatusCode != nil {
			status = org.StatusCode.Code
		}
		for _, comp := range org.Components {
			obs := comp.Observation
			if obs == nil {
				continue
			}
			f := LabResultFields{
				ProcText:  procText,
				ProcCode:  procCode,
				Extension: ext,
				Date:      date,
				Status:    status,
			}
			if obs.Code != nil {
				f.ResultCode = obs.Code.Code
				f.ResultText = obs.Code.DisplayName
			}
			if obs.Value != nil {
				f.ResultValue = obs.Value.Value
				f.ResultUnit = obs.Value.Unit
				if f.ResultValue == "" {
					f.ResultValue = obs.Value.DisplayName
				}
			}
			if obs.EffectiveTime != nil {
				f.ResultDate = pointValue(obs.EffectiveTime)
			}
			if len(obs.ReferenceRanges) > 0 && obs.ReferenceRanges[0].ObservationRange != nil {
				f.ResultRange = strings.TrimSpace(obs.ReferenceRanges[0].ObservationRange.Text)
			}
			out = append(out, f)
		}
	}
	return out
}

func mapCarePlans(section *Section) []CarePlanFields {
	var out []CarePlanFields
	for _, e := range section.Entries {
		var f CarePlanFields
		switch {
		case e.Observation != nil:
			obs := e.Observation
			if len(obs.IDs) > 0 {
				f.Extension = obs.IDs[0].Extension
				f.Root = obs.IDs[0].Root
			}
			if obs.Code != nil {
				f.Code = obs.Code.Code
				f.Text = obs.Code.DisplayName
			}
			f.Description = strings.TrimSpace(obs.Text)
			if obs.EffectiveTime != nil {
				f.Date = pointValue(obs.EffectiveTime)
			}
		case e.Act != nil:
			act := e.Act
			if len(act.IDs) > 0 {
				f.Extension = act.IDs[0].Extension
				f.Root = act.IDs[0].Root
			}
			if act.Code != nil {
				f.Code = act.Code.Code
				f.Text = act.Code.DisplayName
			}
			if act.EffectiveTime != nil {
				f.Date = pointValue(act.EffectiveTime)
			}
		default:
			continue
		}
		out = append(out, f)
	}
	return out
}

func mapFunctionalStatuses(section *Section) []FunctionalStatusFields {
	var out []FunctionalStatusFields
	for _, e := range section.Entries {
		var obs *ObservationEntry
		if e.Observation != nil {
			obs = e.Observation
		} else if e.Organizer != nil && len(e.Organizer.Components) > 0 {
			obs = e.Organizer.Components[0].Observation
		}
		if obs == nil {
			continue
		}
		var f FunctionalStatusFields
		if len(obs.IDs) > 0 {
			f.Extension = obs.IDs[0].Extension
			f.Root = obs.IDs[0].Root
		}
		if obs.Value != nil {
			f.Code = obs.Value.Code
			f.Text = obs.Value.DisplayName
		} else if obs.Code != nil {
			f.Code = obs.Code.Code
			f.Text = obs.Code.DisplayName
		}
		f.Description = strings.TrimSpace(obs.Text)
		if obs.EffectiveTime != nil {
			f.Date = pointValue(obs.EffectiveTime)
		}
		out = append(out, f)
	}
	return out
}

func mapReferral(section *Section) (ReferralFields, bool) {
	var f ReferralFields
	if len(section.TemplateIDs) > 0 {
		f.Root = section.TemplateIDs[0].Root
	}
	if section.Text != nil {
		if len(section.Text.Paragraphs) > 0 {
			f.Body = strings.TrimSpace(strings.Join(section.Text.Paragraphs, "\n"))
		} else {
			f.Body = strings.TrimSpace(section.Text.Content)
		}
	}
	return f, f.Body != ""
}

// rangeValues returns the low/high values of an interval, falling back to a
// point value for the low side.
func rangeValues(tr *TimeRange) (low, high string) {
	if tr == nil {
		return "", ""
	}
	if tr.Low != nil {
		low = tr.Low.Value
	}
	if low == "" {
		low = tr.Value
	}
	if tr.High != nil {
		high = tr.High.Value
	}
	return low, high
}

func pointValue(tr *TimeRange) string {
	if tr == nil {
		return ""
	}
	if tr.Value != "" {
		return tr.Value
	}
	if tr.Low != nil {
		return tr.Low.Value
	}
	return ""
}
