package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
	"github.com/joseph-ayodele/receipts-eval/internal/layout"
	"github.com/joseph-ayodele/receipts-eval/internal/schema"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

// Simple asks for a JSON object with one field per label, guided by label
// descriptions, value examples and a few worked contexts.
type Simple struct {
	preamble string
}

var _ Strategy = (*Simple)(nil)

func NewSimple() *Simple {
	return &Simple{preamble: simplePreamble()}
}

func (s *Simple) Name() string { return StrategySimple }

func (s *Simple) Init(context.Context, dataset.Store, string) error { return nil }

// Prompt appends the document's words to the fixed preamble.
func (s *Simple) Prompt(lines [][]layout.Segment) string {
	return strings.Join([]string{
		s.preamble,
		"",
		contextLine(layout.Texts(flatten(lines))...),
		"Labels:",
	}, "\n")
}

// completion field -> label; only the total may come back as a JSON number
var simpleFields = []struct {
	field   string
	label   constants.Label
	numeric bool
}{
	{"total", constants.LabelTotal, true},
	{"date", constants.LabelDate, false},
	{"company", constants.LabelCompany, false},
	{"address", constants.LabelAddress, false},
}

var (
	jsonBlock    = regexp.MustCompile(`(?s)(\{.+\})`)
	fieldSchemas = func() map[string]*jsonschema.Schema {
		out := make(map[string]*jsonschema.Schema, len(simpleFields))
		for _, f := range simpleFields {
			property := schema.StringOrNull()
			if f.numeric {
				property = schema.StringOrNumberOrNull()
			}
			out[f.field] = schema.MustCompile("completion-"+f.field+".json", map[string]any{
				"type":       "object",
				"properties": map[string]any{f.field: property},
				"required":   []any{f.field},
			})
		}
		return out
	}()
)

// ParseCompletion reads the first {...} block as JSON. Each field is checked
// on its own so one malformed value does not discard the others.
func (s *Simple) ParseCompletion(completion string) score.Record {
	m := jsonBlock.FindStringSubmatch(completion)
	if m == nil {
		return score.Record{}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(m[1])))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return score.Record{}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return score.Record{}
	}

	out := score.NewRecord(constants.AllLabels...)
	for _, f := range simpleFields {
		if err := fieldSchemas[f.field].Validate(obj); err != nil {
			continue
		}
		switch v := obj[f.field].(type) {
		case string:
			out.Set(f.label, v)
		case json.Number:
			out.Set(f.label, v.String())
		}
	}
	return out
}

func contextLine(texts ...string) string {
	quoted := make([]string, len(texts))
	for i, t := range texts {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, "") + `"`
	}
	return "Context: " + strings.Join(quoted, ",")
}

func labelsLine(fields map[string]string) string {
	obj := make(map[string]*string, len(simpleFields))
	for _, f := range simpleFields {
		if v, ok := fields[f.field]; ok {
			obj[f.field] = &v
		} else {
			obj[f.field] = nil
		}
	}
	b, _ := json.Marshal(obj)
	return "Labels: " + string(b)
}

func bullets(items ...string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "- " + it
	}
	return out
}

func simplePreamble() string {
	var b []string
	add := func(lines ...string) { b = append(b, lines...) }

	add(strings.Join([]string{
		`Given a list of OCR text segments as context, you should respond with JSON having following fields: "total", "date", "company", "address".`,
		`Do not include any other fields.`,
		`Field values can only include preceding text segments joined together.`,
		`For example, given "A","b","C" as context, "A b" and "b C" are valid but "A C" is not.`,
	}, " "))
	add("",
		`Q: What can be labeled "total"?`,
		`A: Text that indicates the total amount that was paid on the receipt. Currency is usually Euros.`,
		`Q: What can be labeled "date"?`,
		`A: Text that indicates a specific date, such as year, month and day. Formats like "dd.MM.yyyy", "dd-MM-yyyy", "yyyy-MM-dd", "dd/MM/yyy", and so on.`,
		`Q: What can be labeled as "company"?`,
		`A: Text that indicates the name of the company which issued the receipt.`,
		`Q: What can be labeled as "address"?`,
		`A: Text that indicates a physical location such as street name, city, country, postal code, etc. Cannot be a fax, phone number, or any other ID.`,
	)

	add("", `Examples of text labeled as "address":`)
	add(bullets(
		`Finnoonlaaksontie 1-5 , 02270 Espoo`,
		`HÄMEENTIE 13B 00530 HELSINKI`,
		`Helsinki Ullanlinna`,
		`Mannerheimintie 5 00100 HELSINKI`,
		`Hermannin rantatie 5 00580 Helsinki`,
		`Eteläesplanadi 8`,
		`MARIANKATU 19 00170 TAMPERE`,
		`Laivalahdenkatu 1 00810 Turku`,
	)...)
	add("", `Examples of text labeled as "company":`)
	add(bullets(
		`RAVINTOLA KOREA HOUSE`,
		`PRISMA HERTTONIEMI`,
		`SALE HÄMEENKATU`,
		`K - Supermarket Redi`,
		`McDonald's Herttoniemi`,
		`ESPRESSO HOUSE`,
		`Lidl Suomi Ky`,
	)...)
	add("", `Examples of text labeled as "date":`)
	add(bullets(
		`6.11.2021`,
		`23.12.2016`,
		`2023-01-27`,
		`16-11-2021`,
		`9-11-2021`,
		`12/9/2020`,
		`1-08-2019`,
	)...)

	add("",
		contextLine(`PULLOPALAUTUS`, `10,30`, `-`, `YHTEENSÄ`, `25.51`, `KORTTITAPAHTUMA`, `Kortti:`, `Visa`),
		labelsLine(map[string]string{"total": `25.51`}),
	)
	add("",
		contextLine(`Yritys`, `/`, `Ala:`, `01837/5411`, `Credit`, `/`, `Veloitus`, `25,51`, `EUR`, `Visa`, `Contactless`),
		labelsLine(map[string]string{"total": `25,51`}),
	)
	add("",
		contextLine(`YHTEENSÄ`, `EUR`, `76,04`, `PANKKIKORTTI`, `76,04`, `ALV`, `%`, `NETTO`, `VERO`, `BRUTTO`, `10,00`, `33,04`, `3,31`, `C`, `36,35`, `YHTEENSÄ`, `67,23`, `8,81`, `76,04`, `Veloitus`, `76,04`, `EUR`),
		labelsLine(map[string]string{"total": `76,04`}),
		`Q: Why is "76,04" labeled "total" and not "67,23"?`,
		`A: Because "67,23" is the net sum and "76,04" is what was charged after tax.`,
	)
	add("",
		contextLine(`K`, `-`, `Citymarket`, `Turku`, `Kupittaa`, `Avoinna`, `joka`, `päivä`, `24`, `h`, `Uudenmaantie`, `17`, `,`, `20700`, `Turku`, `kaupat`, `-`),
		labelsLine(map[string]string{"company": `K - Citymarket Turku Kupittaa`, "address": `Uudenmaantie 17 , 20700 Turku`}),
	)
	add("",
		contextLine(`PRISMA`, `HERTTONIEMI`, `010`, `7657`, `100`, `(0,0835`, `e`, `/`, `puh+0,`, `1209`, `e/min)`, `HOK-Elanto`, `Liiketoiminta`, `Oy,`, `1837957-3`, `4`, `K4`, `M000101`, `/`, `4392`, `20:51`, `9-11-2021`, `RED`, `CURRY`, `WITH`),
		labelsLine(map[string]string{"company": `PRISMA HERTTONIEMI`, "date": `9-11-2021`}),
	)
	return strings.Join(b, "\n")
}
