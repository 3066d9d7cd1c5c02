package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finguide/internal/models"
	"finguide/internal/services/store"
)

// errNotDue is returned from inside a store update when the re-checked
// persisted schedule says there is nothing to realize. It marks a skip,
// not a failure.
var errNotDue = errors.New("recurrence: definition not due")

// Result summarizes one processing run
type Result struct {
	Realized int `json:"realized"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Processor realizes due recurring definitions. Each realize-and-advance step
// is a single atomic store update, so a crash or error between definitions
// leaves every other definition untouched.
type Processor struct {
	store *store.Store
	log   zerolog.Logger

	// catchUpAll realizes every missed occurrence in one run instead of the
	// default one-per-invocation throttle.
	catchUpAll bool
}

// NewProcessor creates a Processor
func NewProcessor(s *store.Store, log zerolog.Logger, catchUpAll bool) *Processor {
	return &Processor{store: s, log: log, catchUpAll: catchUpAll}
}

// ProcessAll processes recurring expenses, then recurring incomes. A failure
// on one definition is logged and never aborts the batch.
func (p *Processor) ProcessAll(now time.Time) Result {
	var result Result
	p.processKind(models.Expense, now, &result)
	p.processKind(models.Income, now, &result)

	p.log.Info().
		Int("realized", result.Realized).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("recurring processing complete")

	return result
}

func (p *Processor) processKind(kind models.TransactionType, now time.Time, result *Result) {
	for _, def := range p.store.ActiveRecurring(now) {
		if def.Kind != kind {
			continue
		}
		if !IsDue(def.NextProcessDate, def.EndDate, now) {
			result.Skipped++
			continue
		}

		realized, err := p.processDefinition(def.ID, now)
		result.Realized += realized
		if err != nil {
			result.Failed++
			p.log.Error().
				Err(err).
				Str("definition", def.ID).
				Str("kind", string(kind)).
				Str("description", def.Description).
				Msg("failed to process recurring definition")
		}
	}
}

// processDefinition realizes occurrences for one definition. The default mode
// realizes at most one occurrence per invocation; missed periods catch up one
// at a time across future runs. Dueness is re-checked against persisted state
// inside the update, which keeps retries by an at-least-once scheduler from
// double-realizing.
func (p *Processor) processDefinition(id string, now time.Time) (int, error) {
	realized := 0
	for {
		err := p.store.Update(func(st *store.State) error {
			def := st.FindRecurring(id)
			if def == nil {
				return fmt.Errorf("definition %s no longer exists", id)
			}
			if !IsDue(def.NextProcessDate, def.EndDate, now) {
				return errNotDue
			}

			tx := def.Realize()
			tx.ID = uuid.New().String()
			st.AppendTransaction(tx)

			prev := def.NextProcessDate
			def.LastProcessed = &prev
			// Advance from the occurrence just realized, not from today, so
			// no period is ever batch-skipped.
			def.NextProcessDate = NextOccurrence(prev, def.Pattern)
			return nil
		})
		if errors.Is(err, errNotDue) {
			return realized, nil
		}
		if err != nil {
			return realized, err
		}
		realized++
		if !p.catchUpAll {
			return realized, nil
		}
	}
}
