package extract_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/muniledger/internal/extract"
	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

const goalsJSON = `{"bd_metas":[{"Meta_Codigo":"1","Meta_Nombre":"Consultas","Meta_Unidad":"Consulta","Meta_Anual":100,"Meta_Parcial":25,"Meta_Ejecutado":20,"Juri_Codigo":"1110101000","Prog_Codigo":"01","Prog_Nombre":"Salud"}],"warnings":[]}`

const documentJSON = `{
  "bd_movimientosTesoreria": [
    {"MovTes_Tipo": "Saldo Inicial", "MovTes_Importe": 100},
    {"MovTes_Tipo": "Ingresos del período", "MovTes_Importe": 50}
  ],
  "bd_cuentas": [
    {"Cuenta_Codigo": null, "Cuenta_Nombre": "CAJA", "Cuenta_Importe": 10},
    {"Cuenta_Codigo": "110000000", "Cuenta_Nombre": "Activo Corriente", "Cuenta_Importe": 500}
  ],
  "bd_gastos": [
    {"Gasto_Categoria": "2. Extrapresupuestarios", "Gasto_Objeto": "Extrapresupuestario", "Gasto_Devengado": 4, "Gasto_Pagado": 3}
  ],
  "bd_recursos": [
    {"Rec_Categoria": "1. Presupuestarios", "Rec_TipoRecurso": "Afectados", "Rec_Vigente": 1, "Rec_Devengado": 2, "Rec_Percibido": 3}
  ],
  "bd_jurisdiccion": [
    {"Juri_Codigo": "1110101000", "Juri_Nombre": "Intendencia", "Juri_Grupo": "Departamento Ejecutivo"},
    {"Juri_Codigo": null, "Juri_Nombre": "Sin código", "Juri_Grupo": null}
  ],
  "bd_programas": [
    {"Prog_Codigo": "01", "Prog_Nombre": "Salud", "Juri_Codigo": "1110101000", "Prog_Vigente": 1000}
  ],
  "bd_metas": [
    {"Meta_Codigo": "1", "Meta_Nombre": "Consultas", "Meta_Unidad": null, "Meta_Anual": 1, "Meta_Parcial": null, "Meta_Ejecutado": null, "Juri_Codigo": "1110101000", "Prog_Codigo": "01", "Prog_Nombre": "Salud"}
  ],
  "bd_situacionpatrimonial": [
    {"SitPat_Tipo": "Pasivo", "SitPat_Nombre": "Pasivo Corriente", "SitPat_Saldo": 200}
  ],
  "warnings": ["tabla lateral ignorada"]
}`

const twoGoalsJSON = `{"bd_metas":[
  {"Meta_Codigo":"1","Meta_Nombre":"Consultas","Meta_Anual":1,"Juri_Codigo":"1110101000","Prog_Codigo":"01"},
  {"Meta_Codigo":"2","Meta_Nombre":"Vacunas","Meta_Unidad":"Dosis","Meta_Anual":2,"Juri_Codigo":"1110101000","Prog_Codigo":"01"}
],"warnings":[]}`

type sleeps struct {
	mu  sync.Mutex
	got []time.Duration
}

func (s *sleeps) record(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.got = append(s.got, d)

	return nil
}

func goalsCall(t *testing.T) extract.Call {
	t.Helper()

	v, err := extract.NewValidator("goals-test", extract.GoalsSchema())
	require.NoError(t, err)

	return extract.Call{System: "system", Prompt: "prompt", Schema: v}
}

func textInput(texts ...string) extract.Input {
	pages := make([]pdftext.Page, 0, len(texts))
	for i, text := range texts {
		pages = append(pages, pdftext.Page{Number: i + 1, Text: text})
	}

	return extract.Input{Pages: pages}
}

func TestExtractor_Structured_Retries(t *testing.T) {
	type testCase struct {
		name       string
		maxRetries int
		responses  []string
		errs       []error
		wantErr    bool
		wantSleeps []time.Duration
	}

	fail := errors.New("unavailable")
	sleep := 100 * time.Millisecond

	tests := []testCase{
		{
			name:       "SucceedsAfterTwoFailures",
			maxRetries: 2,
			responses:  []string{"", "", goalsJSON},
			errs:       []error{fail, fail, nil},
			wantSleeps: []time.Duration{sleep, 2 * sleep},
		},
		{
			name:       "InvalidSchemaIsRetried",
			maxRetries: 1,
			responses:  []string{`{"bd_metas":[{"unexpected":1}],"warnings":[]}`, goalsJSON},
			errs:       []error{nil, nil},
			wantSleeps: []time.Duration{sleep},
		},
		{
			name:       "EmptyResponseIsRetried",
			maxRetries: 1,
			responses:  []string{"  ", goalsJSON},
			errs:       []error{nil, nil},
			wantSleeps: []time.Duration{sleep},
		},
		{
			name:       "Exhausted",
			maxRetries: 1,
			responses:  []string{"", ""},
			errs:       []error{fail, fail},
			wantErr:    true,
			wantSleeps: []time.Duration{sleep},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			transport := extract.NewMockTransport(ctrl)

			calls := make([]any, 0, len(tt.responses))
			for i := range tt.responses {
				calls = append(calls, transport.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(tt.responses[i], tt.errs[i]))
			}

			gomock.InOrder(calls...)

			rec := &sleeps{}
			ex := extract.New(transport, extract.Config{
				MaxRetries: tt.maxRetries,
				RetrySleep: sleep,
				Sleep:      rec.record,
			})

			got, err := ex.Structured(context.Background(), goalsCall(t))
			assert.Equal(t, tt.wantSleeps, rec.got)

			if tt.wantErr {
				var retryErr *extract.RetryError
				require.ErrorAs(t, err, &retryErr)
				assert.Equal(t, tt.maxRetries+1, retryErr.Attempts)
				assert.ErrorIs(t, err, fail)

				return
			}

			require.NoError(t, err)
			assert.JSONEq(t, goalsJSON, string(got))
		})
	}
}

func TestExtractor_Structured_StickyDowngrade(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)

	native := transport.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req extract.Request) (string, error) {
			assert.True(t, req.Native)
			return "", extract.ErrResponseFormatUnsupported
		})

	plain := transport.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Times(2).
		DoAndReturn(func(_ context.Context, req extract.Request) (string, error) {
			assert.False(t, req.Native)
			assert.Contains(t, req.Prompt, "JSON Schema")
			// trailing comma and fence are repaired
			return "```json\n" + strings.Replace(goalsJSON, `"warnings":[]`, `"warnings":[],`, 1) + "\n```", nil
		})

	gomock.InOrder(native, plain)

	ex := extract.New(transport, extract.Config{Sleep: (&sleeps{}).record})

	for range 2 {
		got, err := ex.Structured(context.Background(), goalsCall(t))
		require.NoError(t, err)
		assert.JSONEq(t, goalsJSON, string(got))
	}
}

func TestExtractor_Document(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)

	gomock.InOrder(
		transport.EXPECT().
			Generate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req extract.Request) (string, error) {
				assert.Contains(t, req.Prompt, "Texto del documento:")
				assert.Contains(t, req.Prompt, "Movimientos de Tesorería")
				return documentJSON, nil
			}),
		transport.EXPECT().
			Generate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req extract.Request) (string, error) {
				assert.Contains(t, req.Prompt, "SOLO la tabla bd_metas")
				assert.Contains(t, req.Prompt, "principales metas")
				assert.NotContains(t, req.Prompt, "Movimientos de Tesorería")
				return twoGoalsJSON, nil
			}),
	)

	ex := extract.New(transport, extract.Config{Sleep: (&sleeps{}).record})

	got, err := ex.Document(context.Background(), textInput(
		"Movimientos de Tesorería\nSaldo Inicial 100,00",
		"Evolución de las principales metas de programas",
	))
	require.NoError(t, err)

	require.Len(t, got.Treasury, 2)
	assert.Equal(t, report.PeriodIncome, got.Treasury[1].Kind)

	require.Len(t, got.Accounts, 1)
	assert.Equal(t, "CAJA", got.Accounts[0].Name)
	assert.Nil(t, got.Accounts[0].Code)
	assert.Equal(t, report.AccountCash, got.Accounts[0].Type)

	require.Len(t, got.BalanceSheet, 2)
	assert.Equal(t, "210000000", got.BalanceSheet[0].Code)
	assert.Equal(t, report.BalanceLiabilityAndEquity, got.BalanceSheet[0].Kind)
	assert.Equal(t, "110000000", got.BalanceSheet[1].Code)
	assert.Equal(t, report.BalanceAsset, got.BalanceSheet[1].Kind)
	assert.False(t, got.BalanceSheet[1].LowConfidence)
	assert.InDelta(t, 500.0, got.BalanceSheet[1].Balance, 1e-9)

	require.Len(t, got.Expenses, 1)
	assert.Equal(t, report.ExtraBudgetary, got.Expenses[0].Category)

	require.Len(t, got.Resources, 1)
	assert.Equal(t, report.Budgetary, got.Resources[0].Type)
	require.NotNil(t, got.Resources[0].Category)
	assert.Equal(t, "Afectados", *got.Resources[0].Category)

	require.Len(t, got.Jurisdictions, 1)
	assert.Equal(t, "1110101000", got.Jurisdictions[0].Code)

	require.Len(t, got.Programs, 1)
	require.NotNil(t, got.Programs[0].Code)
	assert.Equal(t, "01", *got.Programs[0].Code)

	require.Len(t, got.Goals, 2)
	assert.Equal(t, "Vacunas", got.Goals[1].Name)
	require.NotNil(t, got.Goals[1].Unit)
	assert.Equal(t, "Dosis", *got.Goals[1].Unit)

	assert.Equal(t, []string{
		"tabla lateral ignorada",
		"goals replaced by dedicated pass: 1 -> 2",
		"1 balance sheet rows moved out of accounts",
		"jurisdiction without code dropped",
	}, got.Warnings)
}

func TestExtractor_Document_KeepsLargerGoalSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)

	gomock.InOrder(
		transport.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(documentJSON, nil),
		transport.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(`{"bd_metas":[],"warnings":[]}`, nil),
	)

	ex := extract.New(transport, extract.Config{Sleep: (&sleeps{}).record})

	got, err := ex.Document(context.Background(), textInput("Situación económico financiera"))
	require.NoError(t, err)
	assert.Len(t, got.Goals, 1)
	assert.NotContains(t, got.Warnings, "goals replaced by dedicated pass: 1 -> 0")
}

func TestExtractor_Document_GoalsPassExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)
	boom := errors.New("quota exceeded")

	gomock.InOrder(
		transport.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(documentJSON, nil),
		transport.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", boom).Times(2),
	)

	ex := extract.New(transport, extract.Config{MaxRetries: 1, Sleep: (&sleeps{}).record})

	_, err := ex.Document(context.Background(), textInput("Situación económico financiera"))
	require.ErrorIs(t, err, boom)

	var retryErr *extract.RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 2, retryErr.Attempts)
}

func TestExtractor_Document_AttachedFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)
	file := &extract.FileRef{URI: "files/abc", MIMEType: "application/pdf"}

	transport.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Times(2).
		DoAndReturn(func(_ context.Context, req extract.Request) (string, error) {
			assert.Equal(t, file, req.File)
			if strings.Contains(req.Prompt, "SOLO la tabla bd_metas") {
				return goalsJSON, nil
			}

			return documentJSON, nil
		})

	ex := extract.New(transport, extract.Config{Sleep: (&sleeps{}).record})

	_, err := ex.Document(context.Background(), extract.Input{File: file})
	require.NoError(t, err)
}

func TestExtractor_Document_NoInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ex := extract.New(extract.NewMockTransport(ctrl), extract.Config{})

	_, err := ex.Document(context.Background(), textInput("   "))
	assert.ErrorIs(t, err, extract.ErrNoInput)
}

func TestExtractor_Scoped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)

	programsJSON := `{
	  "bd_jurisdiccion": [{"Juri_Codigo": "1110101000", "Juri_Nombre": "Intendencia", "Juri_Grupo": "Departamento Ejecutivo"}],
	  "bd_programas": [
	    {"Prog_Codigo": "01", "Prog_Nombre": "Salud", "Juri_Codigo": "1110101000"},
	    {"Prog_Codigo": "02", "Prog_Nombre": "Huérfano", "Juri_Codigo": null},
	    {"Prog_Codigo": "03", "Prog_Nombre": "Perdido", "Juri_Codigo": "9999999999"}
	  ],
	  "warnings": []
	}`

	transport.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Times(2).
		DoAndReturn(func(_ context.Context, req extract.Request) (string, error) {
			assert.True(t, req.Native)
			assert.Nil(t, req.File)

			if strings.Contains(req.Prompt, "Jurisdicciones y Programas") {
				assert.Contains(t, req.Prompt, "[PAGINA 1]")
				assert.NotContains(t, req.Prompt, "[PAGINA 2]")

				return programsJSON, nil
			}

			assert.Contains(t, req.Prompt, "[PAGINA 2]")

			return goalsJSON, nil
		})

	ex := extract.New(transport, extract.Config{Sleep: (&sleeps{}).record})

	got, err := ex.Scoped(context.Background(), textInput(
		"Evolución de gastos por programa\nJurisdicción 1110101000 presupuesto",
		"Evolución de las principales metas de programas",
	))
	require.NoError(t, err)

	assert.Len(t, got.Jurisdictions, 1)
	assert.Len(t, got.Programs, 3)
	assert.Len(t, got.Goals, 1)
	assert.Empty(t, got.Treasury)
	assert.Equal(t, []string{
		"program without jurisdiction code: Huérfano",
		"program Perdido references unknown jurisdiction 9999999999",
	}, got.Warnings)
}

func TestExtractor_Scoped_Fallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)

	transport.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Times(2).
		DoAndReturn(func(_ context.Context, req extract.Request) (string, error) {
			assert.Contains(t, req.Prompt, "Texto extraído del documento completo")

			if strings.Contains(req.Prompt, "Jurisdicciones y Programas") {
				return `{"bd_jurisdiccion":[],"bd_programas":[],"warnings":[]}`, nil
			}

			return `{"bd_metas":[],"warnings":[]}`, nil
		})

	ex := extract.New(transport, extract.Config{Sleep: (&sleeps{}).record})

	got, err := ex.Scoped(context.Background(), textInput("Balance general"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"section router matched no pages, whole document sent",
		"no jurisdictions extracted",
		"no programs extracted",
	}, got.Warnings)
}

func TestExtractor_Upload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := extract.NewMockTransport(ctrl)
	ref := &extract.FileRef{URI: "files/1", MIMEType: "application/pdf"}

	transport.EXPECT().Upload(gomock.Any(), []byte("%PDF"), "application/pdf").Return(ref, nil)

	ex := extract.New(transport, extract.Config{})

	got, err := ex.Upload(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}
