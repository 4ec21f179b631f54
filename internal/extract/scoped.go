package extract

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
	"github.com/MrJamesThe3rd/muniledger/internal/router"
)

// Scoped extracts jurisdictions, programs and goals from the pages the
// section router selects. Both calls run concurrently.
func (e *Extractor) Scoped(ctx context.Context, in Input) (report.Payload, error) {
	if in.File == nil && !in.hasText() {
		return report.Payload{}, ErrNoInput
	}

	sel := router.New().Route(in.Pages)

	programs, err := e.scopedCall(in, sel.ProgramPages, programsPrompt, programsValidator)
	if err != nil {
		return report.Payload{}, err
	}

	goals, err := e.scopedCall(in, sel.GoalPages, scopedGoalsPrompt, goalsValidator)
	if err != nil {
		return report.Payload{}, err
	}

	var pw, gw *wirePayload

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w, err := e.decode(gctx, programs)
		if err != nil {
			return fmt.Errorf("extracting programs: %w", err)
		}

		pw = w

		return nil
	})

	g.Go(func() error {
		w, err := e.decode(gctx, goals)
		if err != nil {
			return fmt.Errorf("extracting goals: %w", err)
		}

		gw = w

		return nil
	})

	if err := g.Wait(); err != nil {
		return report.Payload{}, err
	}

	w := wirePayload{
		Jurisdictions: pw.Jurisdictions,
		Programs:      pw.Programs,
		Goals:         gw.Goals,
		Warnings:      slices.Concat(pw.Warnings, gw.Warnings),
	}

	if sel.UsedFallback {
		w.Warnings = append(w.Warnings, "section router matched no pages, whole document sent")
	}

	w.Warnings = append(w.Warnings, programWarnings(w.Jurisdictions, w.Programs)...)

	return w.payload(), nil
}

func (e *Extractor) scopedCall(in Input, pages []int, prompt string, schema *Validator) (Call, error) {
	input, attach := scopedInput(in.Pages, pages)

	c := Call{
		System: scopedSystemPrompt,
		Prompt: prompt + "\n\n" + input,
		Schema: schema,
	}

	if attach {
		if in.File == nil {
			return Call{}, ErrNoInput
		}

		c.File = in.File
	}

	return c, nil
}

// programWarnings checks that programs point to extracted jurisdictions.
func programWarnings(jurisdictions []wireJurisdiction, programs []wireProgram) []string {
	var warnings []string

	if len(jurisdictions) == 0 {
		warnings = append(warnings, "no jurisdictions extracted")
	}

	if len(programs) == 0 {
		warnings = append(warnings, "no programs extracted")
	}

	known := make(map[string]bool, len(jurisdictions))
	for _, j := range jurisdictions {
		if code := text(j.Code); code != "" {
			known[code] = true
		}
	}

	for _, p := range programs {
		code := text(p.JurisdictionCode)

		switch {
		case code == "":
			warnings = append(warnings, fmt.Sprintf("program without jurisdiction code: %s", p.Name))
		case !known[code]:
			warnings = append(warnings, fmt.Sprintf("program %s references unknown jurisdiction %s", p.Name, code))
		}
	}

	return warnings
}
