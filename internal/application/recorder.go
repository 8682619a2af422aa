package application

import "conecta-core-integrations-layer/internal/domain"

// operationRecorder is the slice of adapter state needed to append
// outcomes to the ledger. Embedded by every adapter service.
type operationRecorder struct {
	integrationID string
	typ           domain.IntegrationType
	platform      string
	ledger        *OperationLedger
}

func (r operationRecorder) record(operation string, status domain.OperationStatus, data map[string]interface{}, errMsg string) {
	if r.ledger == nil {
		return
	}
	r.ledger.Append(domain.OperationRecord{
		IntegrationID:   r.integrationID,
		IntegrationType: r.typ,
		Platform:        r.platform,
		Operation:       operation,
		Status:          status,
		Data:            data,
		Error:           errMsg,
	})
}

func (r operationRecorder) recordOutcome(operation string, err error, data map[string]interface{}) {
	if err != nil {
		r.record(operation, domain.OperationError, data, err.Error())
		return
	}
	r.record(operation, domain.OperationSuccess, data, "")
}
