package sqlstore

import (
	"strings"

	"github.com/google/uuid"

	repository "github.com/goliatone/go-repository-bun"
)

func scaEntryHandlers() repository.ModelHandlers[*scaEntryRecord] {
	return repository.ModelHandlers[*scaEntryRecord]{
		NewRecord: func() *scaEntryRecord {
			return &scaEntryRecord{}
		},
		GetID: func(record *scaEntryRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *scaEntryRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *scaEntryRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func transactionStateHandlers() repository.ModelHandlers[*transactionStateRecord] {
	return repository.ModelHandlers[*transactionStateRecord]{
		NewRecord: func() *transactionStateRecord {
			return &transactionStateRecord{}
		},
		GetID: func(record *transactionStateRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *transactionStateRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *transactionStateRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

func newRecordID() string {
	return uuid.NewString()
}
