// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/pipeline"
	"github.com/twizzar/fixturegen/internal/symbols"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a pipeline report into TOON format.
func Encode(r *pipeline.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))
	parts = append(parts, fmt.Sprintf("files: %d", len(r.Files)))
	parts = append(parts, fmt.Sprintf("dropped: %d", r.Dropped))

	var providerRows [][]string
	for i := range r.Providers {
		p := &r.Providers[i]
		providerRows = append(providerRows, []string{
			p.Key.Namespace,
			p.Key.Name,
			p.Key.Target,
			string(p.Status),
			strconv.Itoa(p.Selections),
		})
	}
	parts = append(parts, formatTabular("providers", []string{"namespace", "name", "target", "status", "selections"}, providerRows))

	var pathRows [][]string
	for i := range r.Providers {
		p := &r.Providers[i]
		p.Tree.Walk(func(path []string, node *pathtree.Node) bool {
			if len(path) > 0 {
				pathRows = append(pathRows, []string{p.Key.Name, strings.Join(path, ".")})
			}
			return true
		})
	}
	parts = append(parts, formatTabular("paths", []string{"provider", "path"}, pathRows))

	var factRows [][]string
	for _, f := range r.Facts {
		kind, detail := describe(f)
		factRows = append(factRows, []string{
			kind,
			f.Provider().FullName(),
			f.Location().String(),
			detail,
		})
	}
	parts = append(parts, formatTabular("facts", []string{"kind", "provider", "location", "detail"}, factRows))

	var artifactRows [][]string
	for i := range r.Artifacts {
		a := &r.Artifacts[i]
		artifactRows = append(artifactRows, []string{a.HintName, strconv.Itoa(len(a.Source))})
	}
	parts = append(parts, formatTabular("artifacts", []string{"hint", "bytes"}, artifactRows))

	if len(r.Diagnostics) > 0 {
		var diagRows [][]string
		for i := range r.Diagnostics {
			d := &r.Diagnostics[i]
			diagRows = append(diagRows, []string{
				d.Descriptor.ID,
				string(d.Descriptor.Severity),
				d.Loc.String(),
				d.Message,
			})
		}
		parts = append(parts, formatTabular("diagnostics", []string{"id", "severity", "location", "message"}, diagRows))
	}

	return strings.Join(parts, "\n")
}

func describe(f model.Fact) (kind, detail string) {
	switch f := f.(type) {
	case model.BuilderCreation:
		return "creation", symbols.DisplayName(f.Target)
	case model.CustomBuilderDeclaration:
		return "custom", f.Builder
	case model.MemberSelection:
		return "selection", f.Identifier + "." + strings.Join(f.Chain, ".")
	default:
		panic(fmt.Sprintf("toon: unknown fact %T", f))
	}
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
