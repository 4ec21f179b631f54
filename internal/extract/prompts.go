package extract

import (
	"strings"

	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
	"github.com/MrJamesThe3rd/muniledger/internal/router"
	"github.com/MrJamesThe3rd/muniledger/internal/textkey"
)

const documentSystemPrompt = `Sos un asistente de carga de datos contables municipales. Convertís las tablas del documento en JSON que cumpla exactamente el schema. No inventes filas; si un dato falta, usá null. Ignorá totales, encabezados y subtítulos. Números: "1.234,56" => 1234.56 y "(123,45)" => -123.45. No devuelvas texto fuera del JSON.`

const documentPrompt = `Cargá las siguientes tablas del informe "Situación Económico-Financiera" (RAFAM):

1) bd_movimientosTesoreria, de "Movimientos de Tesorería": seis registros, "Saldo Inicial", "Ingresos del Periodo", "Ingresos de Ajustes Contables", "Gastos del Periodo", "Egresos de Ajustes Contables" y "Saldo Final", con MovTes_Tipo y MovTes_Importe.

2) bd_cuentas, solo de "Demostración del Saldo": cada fila tiene código (Cuenta_Codigo), nombre (Cuenta_Nombre) e importe (Cuenta_Importe). La fila "CAJA" no tiene código. Descartá filas con ACTIVO, PASIVO, PATRIMONIO o CORRIENTE y no uses el "Estado de Situación Patrimonial".

3) bd_gastos, de "Evolución de Gastos por Objeto": Gasto_Categoria es "1. Presupuestarios" o "2. Extrapresupuestarios". Para presupuestarios una fila por objeto con vigente, preventivo, compromiso, devengado y pagado. Para extrapresupuestarios un único registro con Gasto_Objeto "Extrapresupuestario" y solo devengado y pagado.

4) bd_recursos, de "Evolución de los Recursos": Rec_Categoria es "1. Presupuestarios" o "2. Extrapresupuestarios", Rec_TipoRecurso es el nombre exacto del recurso ("Ingresos corrientes", "Recursos de capital", "Fuentes financieras", "De libre disponibilidad", "Afectados"). Extrapresupuestarios: un único registro "Extrapresupuestario" con solo Rec_Percibido. Ignorá la tabla lateral "Cuenta Ahorro Inversión Financiamiento" (filas I a X).

5) bd_jurisdiccion y 6) bd_programas, de "Evolución de Gastos por Programa": grupos "Departamento Ejecutivo" y "H.C.D.". Las jurisdicciones se identifican por su código de 10 dígitos; deduplicalas. "Actividades Centrales" y "Partidas no asignables a programas" son jurisdicciones especiales con códigos estables ACTCENT_EXEC, ACTCENT_HCD, SINPROG_EXEC o SINPROG_HCD. Juri_Grupo es el grupo. Los programas tienen Juri_Codigo, Prog_Codigo (null si no tiene), Prog_Nombre y los cinco importes.

7) bd_metas, de "Evolución de las principales metas de programas": cada encabezado de 10 dígitos + código de programa + nombre activa un programa para las metas siguientes. Cada meta tiene código, nombre y unidad entre paréntesis. Columnas en orden: Meta_Anual, Meta_Parcial, Meta_Ejecutado; la cuarta se ignora. Completá Juri_Codigo, Prog_Codigo y Prog_Nombre del programa activo. Metas incompletas se cargan con nulls.

8) bd_situacionpatrimonial, del "Estado de Situación Patrimonial": solo "Activo Corriente", "Activo No Corriente", "Pasivo Corriente", "Pasivo No Corriente", "Capital Fiscal", "Resultados de Ejercicios Anteriores", "Resultado del ejercicio" y "Resultados afectados a la construcción de bienes de dominio público", con SitPat_Tipo (Activo, Pasivo o Patrimonio Público) y SitPat_Saldo.

Agregá en warnings textos cortos para secciones no encontradas, filas dudosas y metas sin programa.`

const goalsPrompt = `Extraé SOLO la tabla bd_metas de "Evolución de las principales metas de programas".
- "Departamento Ejecutivo" es un agrupador y no se carga.
- Cada programa empieza con código de jurisdicción de 10 dígitos, código de programa y nombre; queda activo para las metas de abajo.
- Cada meta empieza con un código numérico y su nombre; la unidad va entre paréntesis.
- Columnas en orden: Meta_Anual, Meta_Parcial, Meta_Ejecutado.
- Si una meta queda sin programa activo, saltá hasta el próximo encabezado de 10 dígitos.
- Metas con valores incompletos se cargan con nulls.`

const scopedSystemPrompt = `Sos un extractor de tablas de informes municipales. Devolvés SOLO JSON válido según el schema. No inventes datos. Ignorá encabezados, totales y filas decorativas.`

const programsPrompt = `Extraé la tabla combinada de Jurisdicciones y Programas ("Evolución de Gastos por Programa").
- La tabla mezcla filas de jurisdicción y filas de programa; cada programa queda asociado a su jurisdicción por Juri_Codigo.
- Para los programas cargá vigente, preventivo, compromiso, devengado y pagado.
- Ignorá encabezados, subtítulos, totales y filas vacías.
- Números: "1.234,56" => 1234.56 y "(123,45)" => -123.45.
- Mantené los códigos exactamente como aparecen.`

const scopedGoalsPrompt = `Extraé la tabla "Evolución de las principales metas de programas".
- Cada fila es una meta vinculada a un programa.
- Cargá código, nombre y unidad de la meta y sus valores del período.
- Cargá código y nombre del programa y el código de jurisdicción si aparece.
- Ignorá encabezados, subtítulos, totales y filas vacías.
- Números: "1.234,56" => 1234.56 y "(123,45)" => -123.45.`

const attachedInput = "Usá el documento completo adjunto como input."

// withSchema appends the schema to a prompt for models without native
// structured output.
func withSchema(prompt, schema string) string {
	return prompt + "\n\nDevolvé SOLO JSON válido y estricto según este JSON Schema:\n" + schema
}

// scopedInput renders the page-scoped input of a prompt. It falls back to
// the whole text, and to the attached file when there is no text at all.
func scopedInput(pages []pdftext.Page, selected []int) (string, bool) {
	if len(selected) > 0 {
		if s := router.Section(pages, selected); strings.TrimSpace(s) != "" {
			return "Texto extraído por páginas:\n" + s, false
		}
	}

	all := make([]int, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			all = append(all, p.Number)
		}
	}

	if len(all) > 0 {
		return "Texto extraído del documento completo:\n" + router.Section(pages, all), false
	}

	return attachedInput, true
}

// goalPagesText keeps the pages that mention goals, used when the goals
// pass cannot attach the file.
func goalPagesText(pages []pdftext.Page) string {
	var kept []pdftext.Page

	for _, p := range pages {
		if textkey.ContainsAny(textkey.Key(p.Text), "metas", "evolucion") {
			kept = append(kept, p)
		}
	}

	return pdftext.Join(kept)
}
