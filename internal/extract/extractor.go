package extract

import (
	"github.com/rs/zerolog"

	"github.com/avolkov/finledger/internal/domain"
)

// Result is the output of one pass through the repair & validation pipeline.
type Result struct {
	Transactions []domain.CandidateTransaction
	Accounts     []domain.ExtractedAccount

	// Stage names the repair stage that produced the parsed objects.
	Stage string
	// Dropped counts records that parsed but failed schema validation.
	// Each drop is logged individually; the batch is never rejected wholesale.
	Dropped int
}

// Parse converts a raw model response into schema-valid candidates or a
// terminal failure. Invalid records are dropped one by one with a logged
// reason; zero survivors of both kinds is an extraction failure, while an
// accounts-only result is a success with an empty transaction set.
func Parse(raw string, log zerolog.Logger) (*Result, error) {
	objects, stage, err := NormalizeResponse(raw)
	if err != nil {
		return nil, err
	}

	result := &Result{Stage: stage}
	for i, obj := range objects {
		record := repairRecord(obj)

		if isAccountCandidate(record) {
			account, err := validateAccount(record)
			if err != nil {
				log.Warn().Int("record", i).Err(err).Msg("dropping invalid account candidate")
				result.Dropped++
				continue
			}
			result.Accounts = append(result.Accounts, account)
			continue
		}

		if isTransactionCandidate(record) {
			tx, err := validateTransaction(record)
			if err != nil {
				log.Warn().Int("record", i).Err(err).Msg("dropping invalid transaction candidate")
				result.Dropped++
				continue
			}
			result.Transactions = append(result.Transactions, tx)
			continue
		}

		log.Warn().Int("record", i).Msg("dropping unclassifiable record")
		result.Dropped++
	}

	if len(result.Transactions) == 0 && len(result.Accounts) == 0 {
		return nil, domain.ExtractionFailure("no-usable-records", raw)
	}
	return result, nil
}
