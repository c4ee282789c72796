package annotation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Demographics variables whose prefix does not name their dataset
var demographicsVariables = []string{
	"STUDYID", "USUBJID", "SUBJID", "SITEID", "INVID", "INVNAM",
	"BRTHDTC", "AGE", "AGEU", "SEX", "RACE", "ETHNIC", "COUNTRY",
	"ARMCD", "ARM", "ACTARMCD", "ACTARM", "RFSTDTC", "RFENDTC",
	"RFICDTC", "RFPENDTC", "DTHDTC", "DTHFL",
}

// ExceptionTable overrides the prefix strategy for individual variables
type ExceptionTable struct {
	entries map[string]string
}

// exceptionFile is the YAML layout of an exception table:
//
//	datasets:
//	  DM: [BRTHDTC, AGE, SEX]
//	  TR: [LNKID]
//	verbatim: [RELREC]
type exceptionFile struct {
	Datasets map[string][]string `yaml:"datasets"`
	Verbatim []string            `yaml:"verbatim"`
}

// DefaultExceptions returns the built-in table: demographics variables map to
// DM, LNKID maps to TR and RELREC names itself.
func DefaultExceptions() *ExceptionTable {
	t := &ExceptionTable{entries: make(map[string]string)}
	for _, v := range demographicsVariables {
		t.entries[v] = "DM"
	}
	t.entries["LNKID"] = "TR"
	t.entries[RelatedRecords] = RelatedRecords
	return t
}

// LoadExceptions reads a YAML exception table and layers it over the defaults
func LoadExceptions(path string) (*ExceptionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exception table: %w", err)
	}
	return ParseExceptions(data)
}

// ParseExceptions decodes a YAML exception table and layers it over the defaults
func ParseExceptions(data []byte) (*ExceptionTable, error) {
	var file exceptionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse exception table: %w", err)
	}

	t := DefaultExceptions()
	for dataset, variables := range file.Datasets {
		dataset = strings.TrimSpace(dataset)
		if dataset == "" {
			return nil, fmt.Errorf("exception table has an empty dataset code")
		}
		for _, v := range variables {
			t.Set(v, dataset)
		}
	}
	for _, v := range file.Verbatim {
		t.Set(v, v)
	}
	return t, nil
}

// Set maps a variable to a dataset
func (t *ExceptionTable) Set(variable, dataset string) {
	variable = strings.TrimSpace(variable)
	if variable == "" {
		return
	}
	t.entries[variable] = strings.TrimSpace(dataset)
}

// Lookup returns the dataset a variable is pinned to
func (t *ExceptionTable) Lookup(variable string) (string, bool) {
	if t == nil {
		return "", false
	}
	dataset, ok := t.entries[variable]
	return dataset, ok
}

// Len returns the number of entries
func (t *ExceptionTable) Len() int {
	return len(t.entries)
}
