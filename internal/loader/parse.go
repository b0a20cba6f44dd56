package loader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"housingcore/pkg/domain"
)

// fieldErr collects the first malformed field of a record.
type fieldErr struct {
	entity domain.EntityType
	id     string
	err    error
}

func (f *fieldErr) fail(field string, err error) {
	if f.err == nil {
		f.err = domain.MalformedError{Entity: f.entity, ID: f.id, Field: field, Err: err}
	}
}

func (f *fieldErr) boolean(field, raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		f.fail(field, err)
	}
	return v
}

func (f *fieldErr) integer(field, raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f.fail(field, err)
		return def
	}
	if v < 0 {
		f.fail(field, fmt.Errorf("negative value %d", v))
	}
	return v
}

func (f *fieldErr) date(field, raw string) time.Time {
	v, err := domain.ParseDate(raw)
	if err != nil {
		f.fail(field, err)
	}
	return v
}

func (f *fieldErr) marital(raw string) domain.MaritalStatus {
	v, err := domain.ParseMaritalStatus(raw)
	if err != nil {
		f.fail("marital_status", err)
	}
	return v
}

func (f *fieldErr) nric(raw string) string {
	if err := domain.ValidateNRIC(raw); err != nil {
		f.fail("nric", err)
	}
	return raw
}

// units parses "2-Room=10;3-Room=5".
func (f *fieldErr) units(raw string) map[domain.FlatType]int {
	out := make(map[domain.FlatType]int)
	for _, part := range domain.ParseIDList(raw) {
		name, count, ok := strings.Cut(part, "=")
		if !ok {
			f.fail("units", fmt.Errorf("entry %q lacks '='", part))
			continue
		}
		ft, err := domain.ParseFlatType(strings.TrimSpace(name))
		if err != nil {
			f.fail("units", err)
			continue
		}
		out[ft] = f.integer("units", strings.TrimSpace(count), 0)
	}
	return out
}

// formatUnits renders units in canonical flat-type order.
func formatUnits(units map[domain.FlatType]int) string {
	keys := make([]domain.FlatType, 0, len(units))
	for ft := range units {
		keys = append(keys, ft)
	}
	sort.Slice(keys, func(i, j int) bool { return flatRank(keys[i]) < flatRank(keys[j]) })
	parts := make([]string, 0, len(keys))
	for _, ft := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", ft, units[ft]))
	}
	return strings.Join(parts, domain.ListSeparator)
}

func flatRank(ft domain.FlatType) int {
	for i, v := range domain.AllFlatTypes {
		if v == ft {
			return i
		}
	}
	return len(domain.AllFlatTypes)
}
