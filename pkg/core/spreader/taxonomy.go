package spreader

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

//go:embed taxonomy/*.yaml
var taxonomyFS embed.FS

// Statement type identifiers shared across the whole system.
const (
	StatementIncome   = "income_statement"
	StatementBalance  = "balance_sheet"
	StatementCashFlow = "cash_flow"
	StatementUnknown  = "unknown"
)

// xbrlEntry is the resolution of an XBRL element name.
type xbrlEntry struct {
	Key       string `yaml:"key"`
	Statement string `yaml:"statement"`
}

// labelMapping is one of the three free-text taxonomies. Keys keep the
// data-file order: prefix and fuzzy matching depend on it.
type labelMapping struct {
	statement string
	keys      []string
	values    map[string]string
	tokens    map[string]tokenSet // precomputed for fuzzy matching
}

// Taxonomy is the full canonical-label configuration. Loaded once,
// immutable afterwards; safe for concurrent readers.
type Taxonomy struct {
	mappings []labelMapping // income -> balance -> cash flow, in precedence order
	xbrlTags map[string]xbrlEntry
}

func loadMapping(statement, filename string) (labelMapping, error) {
	m := labelMapping{
		statement: statement,
		values:    map[string]string{},
		tokens:    map[string]tokenSet{},
	}

	raw, err := taxonomyFS.ReadFile("taxonomy/" + filename)
	if err != nil {
		return m, fmt.Errorf("taxonomy file %s missing: %w", filename, err)
	}

	// MapSlice preserves the file's entry order.
	var entries yaml.MapSlice
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return m, fmt.Errorf("taxonomy file %s invalid: %w", filename, err)
	}

	for _, entry := range entries {
		key, okK := entry.Key.(string)
		value, okV := entry.Value.(string)
		if !okK || !okV {
			return m, fmt.Errorf("taxonomy file %s: non-string entry %v", filename, entry.Key)
		}
		m.add(key, value)
	}
	return m, nil
}

func (m *labelMapping) add(key, value string) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	m.tokens[key] = tokenize(key)
}

// LoadTaxonomy parses the embedded taxonomy data files.
func LoadTaxonomy() (*Taxonomy, error) {
	t := &Taxonomy{xbrlTags: map[string]xbrlEntry{}}

	files := []struct {
		statement string
		filename  string
	}{
		{StatementIncome, "income_statement.yaml"},
		{StatementBalance, "balance_sheet.yaml"},
		{StatementCashFlow, "cash_flow.yaml"},
	}
	for _, f := range files {
		m, err := loadMapping(f.statement, f.filename)
		if err != nil {
			return nil, err
		}
		t.mappings = append(t.mappings, m)
	}

	raw, err := taxonomyFS.ReadFile("taxonomy/xbrl_tags.yaml")
	if err != nil {
		return nil, fmt.Errorf("xbrl tag taxonomy missing: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t.xbrlTags); err != nil {
		return nil, fmt.Errorf("xbrl tag taxonomy invalid: %w", err)
	}

	return t, nil
}

// TaxonomyExtensions is the shape of an operator-supplied extension file.
// Extensions append after the built-in entries so built-ins keep
// precedence; within each section entries apply in sorted key order.
type TaxonomyExtensions struct {
	IncomeStatement map[string]string `json:"income_statement"`
	BalanceSheet    map[string]string `json:"balance_sheet"`
	CashFlow        map[string]string `json:"cash_flow"`
}

// LoadTaxonomyWithExtensions layers an Hjson extension file (comments and
// unquoted keys allowed, for hand editing) on top of the built-in table.
func LoadTaxonomyWithExtensions(extensionData []byte) (*Taxonomy, error) {
	t, err := LoadTaxonomy()
	if err != nil {
		return nil, err
	}

	var ext TaxonomyExtensions
	if err := hjson.Unmarshal(extensionData, &ext); err != nil {
		return nil, fmt.Errorf("taxonomy extension file invalid: %w", err)
	}

	sections := []struct {
		statement string
		entries   map[string]string
	}{
		{StatementIncome, ext.IncomeStatement},
		{StatementBalance, ext.BalanceSheet},
		{StatementCashFlow, ext.CashFlow},
	}
	for _, section := range sections {
		if len(section.entries) == 0 {
			continue
		}
		keys := make([]string, 0, len(section.entries))
		for k := range section.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for i := range t.mappings {
			if t.mappings[i].statement != section.statement {
				continue
			}
			for _, k := range keys {
				t.mappings[i].add(normalizeLabel(k), section.entries[k])
			}
		}
	}

	return t, nil
}

var (
	defaultTaxonomy     *Taxonomy
	defaultTaxonomyOnce sync.Once
)

// DefaultTaxonomy returns the process-wide built-in taxonomy.
// The embedded data is fixed at build time, so a parse failure is a
// build defect and panics.
func DefaultTaxonomy() *Taxonomy {
	defaultTaxonomyOnce.Do(func() {
		t, err := LoadTaxonomy()
		if err != nil {
			panic(fmt.Sprintf("spreader: embedded taxonomy corrupt: %v", err))
		}
		defaultTaxonomy = t
	})
	return defaultTaxonomy
}

// Size returns the total number of taxonomy entries (all three free-text
// mappings plus XBRL tags).
func (t *Taxonomy) Size() int {
	n := len(t.xbrlTags)
	for _, m := range t.mappings {
		n += len(m.keys)
	}
	return n
}
