package imports

import (
	"sort"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

// Stage flattens a parsed bundle into audit detail rows. Empty field values
// are not staged; they decode back to their zero value on reassembly.
func Stage(auditID string, b *ccda.Bundle) []*ImportAuditDetail {
	var rows []*ImportAuditDetail
	for entity, instances := range b.Groups() {
		for i, fields := range instances {
			for field, value := range fields {
				if value == "" {
					continue
				}
				rows = append(rows, &ImportAuditDetail{
					AuditID:  auditID,
					Entity:   entity,
					Instance: i,
					Field:    field,
					Value:    value,
				})
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		if a.Instance != b.Instance {
			return a.Instance < b.Instance
		}
		return a.Field < b.Field
	})
	return rows
}

// Reassemble groups detail rows back into the nested form DecodeBundle reads.
func Reassemble(details []*ImportAuditDetail) map[string]map[int]map[string]string {
	groups := make(map[string]map[int]map[string]string)
	for _, d := range details {
		instances := groups[d.Entity]
		if instances == nil {
			instances = make(map[int]map[string]string)
			groups[d.Entity] = instances
		}
		fields := instances[d.Instance]
		if fields == nil {
			fields = make(map[string]string)
			instances[d.Instance] = fields
		}
		fields[d.Field] = d.Value
	}
	return groups
}

// OrderedGroups renders staged rows for review: entity name to instance
// field maps in staging order.
func OrderedGroups(details []*ImportAuditDetail) map[string][]map[string]string {
	groups := Reassemble(details)
	out := make(map[string][]map[string]string, len(groups))
	for entity, instances := range groups {
		indexes := make([]int, 0, len(instances))
		for i := range instances {
			indexes = append(indexes, i)
		}
		sort.Ints(indexes)
		for _, i := range indexes {
			out[entity] = append(out[entity], instances[i])
		}
	}
	return out
}
