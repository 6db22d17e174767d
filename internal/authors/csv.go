package authors

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseCSV reads nick,name,email rows. Rows with both name and e-mail blank
// produce a nil entry. Later rows fill in fields missing from earlier ones.
func ParseCSV(r io.Reader) (map[string]*Identity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	out := make(map[string]*Identity)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("authors: csv line %d: %w", line, err)
		}
		for len(record) < 3 {
			record = append(record, "")
		}
		nick := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		email := strings.TrimSpace(record[2])
		if nick == "" {
			continue
		}
		if name == "" && email == "" {
			if _, ok := out[nick]; !ok {
				out[nick] = nil
			}
			continue
		}
		id := out[nick]
		if id == nil {
			id = &Identity{}
			out[nick] = id
		}
		if name != "" {
			id.Name = name
		}
		if email != "" {
			id.Email = email
		}
	}
	return out, nil
}

// WriteYAML writes entries sorted by login, using ~ for nil entries.
func WriteYAML(w io.Writer, entries map[string]*Identity) error {
	logins := make([]string, 0, len(entries))
	for login := range entries {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, login := range logins {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: login}
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "~"}
		if id := entries[login]; id != nil {
			if err := val.Encode(id); err != nil {
				return fmt.Errorf("authors: encode %s: %w", login, err)
			}
		}
		doc.Content = append(doc.Content, key, val)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("authors: write yaml: %w", err)
	}
	return enc.Close()
}

// ConvertFile converts a CSV author list into the YAML store format and
// returns the number of logins written.
func ConvertFile(csvPath, yamlPath string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("authors: open %s: %w", csvPath, err)
	}
	defer f.Close()

	entries, err := ParseCSV(f)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := WriteYAML(&buf, entries); err != nil {
		return 0, err
	}
	if err := os.WriteFile(yamlPath, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("authors: write %s: %w", yamlPath, err)
	}
	return len(entries), nil
}
