package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Top-level arrays of the extraction payload.
const (
	fieldTreasury      = "bd_movimientosTesoreria"
	fieldAccounts      = "bd_cuentas"
	fieldExpenses      = "bd_gastos"
	fieldResources     = "bd_recursos"
	fieldJurisdictions = "bd_jurisdiccion"
	fieldPrograms      = "bd_programas"
	fieldGoals         = "bd_metas"
	fieldBalanceSheet  = "bd_situacionpatrimonial"
	fieldWarnings      = "warnings"
)

func nullable(t string) map[string]any {
	return map[string]any{"type": []any{t, "null"}}
}

func str() map[string]any {
	return map[string]any{"type": "string"}
}

func object(props map[string]any, required ...string) map[string]any {
	req := make([]any, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             req,
	}
}

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func rowSchemas() map[string]map[string]any {
	return map[string]map[string]any{
		fieldTreasury: object(map[string]any{
			"MovTes_Tipo":    str(),
			"MovTes_Importe": nullable("number"),
		}, "MovTes_Tipo", "MovTes_Importe"),
		fieldAccounts: object(map[string]any{
			"Cuenta_Codigo":  nullable("string"),
			"Cuenta_Nombre":  str(),
			"Cuenta_Importe": nullable("number"),
		}, "Cuenta_Nombre", "Cuenta_Importe"),
		fieldExpenses: object(map[string]any{
			"Gasto_Categoria":  nullable("string"),
			"Gasto_Objeto":     str(),
			"Gasto_Vigente":    nullable("number"),
			"Gasto_Preventivo": nullable("number"),
			"Gasto_Compromiso": nullable("number"),
			"Gasto_Devengado":  nullable("number"),
			"Gasto_Pagado":     nullable("number"),
		}, "Gasto_Objeto"),
		fieldResources: object(map[string]any{
			"Rec_Categoria":   nullable("string"),
			"Rec_TipoRecurso": str(),
			"Rec_Vigente":     nullable("number"),
			"Rec_Devengado":   nullable("number"),
			"Rec_Percibido":   nullable("number"),
		}, "Rec_TipoRecurso"),
		fieldJurisdictions: object(map[string]any{
			"Juri_Codigo": nullable("string"),
			"Juri_Nombre": nullable("string"),
			"Juri_Grupo":  nullable("string"),
		}, "Juri_Codigo"),
		fieldPrograms: object(map[string]any{
			"Prog_Codigo":     nullable("string"),
			"Prog_Nombre":     str(),
			"Juri_Codigo":     nullable("string"),
			"Prog_Vigente":    nullable("number"),
			"Prog_Preventivo": nullable("number"),
			"Prog_Compromiso": nullable("number"),
			"Prog_Devengado":  nullable("number"),
			"Prog_Pagado":     nullable("number"),
		}, "Prog_Nombre"),
		fieldGoals: object(map[string]any{
			"Meta_Codigo":    nullable("string"),
			"Meta_Nombre":    str(),
			"Meta_Unidad":    nullable("string"),
			"Meta_Anual":     nullable("number"),
			"Meta_Parcial":   nullable("number"),
			"Meta_Ejecutado": nullable("number"),
			"Juri_Codigo":    nullable("string"),
			"Prog_Codigo":    nullable("string"),
			"Prog_Nombre":    nullable("string"),
		}, "Meta_Nombre"),
		fieldBalanceSheet: object(map[string]any{
			"SitPat_Tipo":   nullable("string"),
			"SitPat_Nombre": str(),
			"SitPat_Saldo":  nullable("number"),
		}, "SitPat_Tipo", "SitPat_Nombre"),
	}
}

// payloadSchema builds an object schema holding the given row arrays plus
// the warnings array, all required.
func payloadSchema(fields ...string) map[string]any {
	rows := rowSchemas()
	props := make(map[string]any, len(fields)+1)

	for _, f := range fields {
		props[f] = array(rows[f])
	}

	props[fieldWarnings] = array(str())

	return object(props, append(fields, fieldWarnings)...)
}

// Schema is the whole-document schema: eight arrays and warnings.
func Schema() map[string]any {
	return payloadSchema(
		fieldTreasury,
		fieldAccounts,
		fieldExpenses,
		fieldResources,
		fieldJurisdictions,
		fieldPrograms,
		fieldGoals,
		fieldBalanceSheet,
	)
}

// GoalsSchema covers the goals-only pass.
func GoalsSchema() map[string]any {
	return payloadSchema(fieldGoals)
}

// ProgramsSchema covers the jurisdiction/program table of a scoped run.
func ProgramsSchema() map[string]any {
	return payloadSchema(fieldJurisdictions, fieldPrograms)
}

// Validator checks responses against a compiled schema.
type Validator struct {
	doc    map[string]any
	schema *jsonschema.Schema
	text   string
}

func NewValidator(name string, doc map[string]any) (*Validator, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding schema %s: %w", name, err)
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding schema %s: %w", name, err)
	}

	url := "https://muniledger.local/schema/" + name + ".json"

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("adding schema %s: %w", name, err)
	}

	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}

	return &Validator{doc: doc, schema: sch, text: string(raw)}, nil
}

func mustValidator(name string, doc map[string]any) *Validator {
	v, err := NewValidator(name, doc)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate checks that raw is a JSON document conforming to the schema.
func (v *Validator) Validate(raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if err := v.schema.Validate(inst); err != nil {
		return fmt.Errorf("validating response: %w", err)
	}

	return nil
}

var (
	documentValidator = mustValidator("document", Schema())
	goalsValidator    = mustValidator("goals", GoalsSchema())
	programsValidator = mustValidator("programs", ProgramsSchema())
)
