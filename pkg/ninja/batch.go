package ninja

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jstrn/ninjarmm/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedResourceType     = errors.New("unsupported resource type")
	ErrUnsupportedOperationType    = errors.New("unsupported operation type")
	ErrInvalidDataTypeOrganization = errors.New("invalid data type for organization operation")
	ErrInvalidDataTypeDevice       = errors.New("invalid data type for device operation")
	ErrInvalidDataTypeTag          = errors.New("invalid data type for tag operation")
	ErrTransactionFailed           = errors.New("transaction failed")
)

// UpdateData pairs a resource id with its update body.
type UpdateData struct {
	ID   int
	Body Record
}

// BatchOperation represents a single operation in a batch.
type BatchOperation struct {
	ID       string
	Type     string // "create", "update", "delete", "get"
	Resource string // "organization", "device", "tag"
	Data     interface{}
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Data     interface{}
	Error    error
	Duration time.Duration
}

// handleCrudOperation is a helper that handles the common CRUD pattern.
func handleCrudOperation(
	operation BatchOperation,
	createFunc func() (interface{}, error),
	updateFunc func() (interface{}, error),
	deleteFunc func() (interface{}, error),
	getFunc func() (interface{}, error),
) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	switch operation.Type {
	case "create":
		data, err := createFunc()
		result.Success = err == nil
		result.Data = data
		result.Error = err
	case "update":
		data, err := updateFunc()
		result.Success = err == nil
		result.Data = data
		result.Error = err
	case "delete":
		data, err := deleteFunc()
		result.Success = err == nil
		result.Data = data
		result.Error = err
	case "get":
		data, err := getFunc()
		result.Success = err == nil
		result.Data = data
		result.Error = err
	default:
		result.Error = fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
	}

	return result
}

// BatchExecutor executes batch operations against the API with bounded
// concurrency. Useful for bulk onboarding (create many organizations) or bulk
// device hygiene (tag or update large fleets).
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the per-operation timeout.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) ([]BatchResult, error) {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		}(index, operation)
	}

	waitGroup.Wait()

	return results, nil
}

// executeOperation executes a single operation.
func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	switch operation.Resource {
	case "organization":
		return b.executeOrganizationOperation(ctx, operation)
	case "device":
		return b.executeDeviceOperation(ctx, operation)
	case "tag":
		return b.executeTagOperation(ctx, operation)
	default:
		return &BatchResult{
			ID:    operation.ID,
			Error: fmt.Errorf("%w: %s", ErrUnsupportedResourceType, operation.Resource),
		}
	}
}

// executeOrganizationOperation handles organization operations using the
// common CRUD helper.
func (b *BatchExecutor) executeOrganizationOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	return handleCrudOperation(operation,
		func() (interface{}, error) {
			if body, ok := operation.Data.(Record); ok {
				return b.client.Organizations().Create(ctx, body)
			}

			return nil, fmt.Errorf("%w create", ErrInvalidDataTypeOrganization)
		},
		func() (interface{}, error) {
			if data, ok := operation.Data.(*UpdateData); ok {
				return b.client.Organizations().Update(ctx, data.ID, data.Body)
			}

			return nil, fmt.Errorf("%w update", ErrInvalidDataTypeOrganization)
		},
		func() (interface{}, error) {
			if id, ok := operation.Data.(int); ok {
				err := b.client.Organizations().Delete(ctx, id)
				if err != nil {
					return nil, fmt.Errorf("failed to delete organization: %w", err)
				}

				return nil, nil
			}

			return nil, fmt.Errorf("%w delete", ErrInvalidDataTypeOrganization)
		},
		func() (interface{}, error) {
			if id, ok := operation.Data.(int); ok {
				return b.client.Organizations().Get(ctx, id)
			}

			return nil, fmt.Errorf("%w get", ErrInvalidDataTypeOrganization)
		},
	)
}

// executeDeviceOperation handles device operations. Devices are enrolled by
// agents, not created over the REST API, so only update and get apply.
func (b *BatchExecutor) executeDeviceOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	return handleCrudOperation(operation,
		func() (interface{}, error) {
			return nil, fmt.Errorf("%w: device create", ErrUnsupportedOperationType)
		},
		func() (interface{}, error) {
			if data, ok := operation.Data.(*UpdateData); ok {
				return b.client.Devices().Update(ctx, data.ID, data.Body)
			}

			return nil, fmt.Errorf("%w update", ErrInvalidDataTypeDevice)
		},
		func() (interface{}, error) {
			return nil, fmt.Errorf("%w: device delete", ErrUnsupportedOperationType)
		},
		func() (interface{}, error) {
			if id, ok := operation.Data.(int); ok {
				return b.client.Devices().Get(ctx, id)
			}

			return nil, fmt.Errorf("%w get", ErrInvalidDataTypeDevice)
		},
	)
}

// executeTagOperation handles tag operations.
func (b *BatchExecutor) executeTagOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	return handleCrudOperation(operation,
		func() (interface{}, error) {
			if body, ok := operation.Data.(Record); ok {
				return b.client.Tags().Create(ctx, body)
			}

			return nil, fmt.Errorf("%w create", ErrInvalidDataTypeTag)
		},
		func() (interface{}, error) {
			return nil, fmt.Errorf("%w: tag update", ErrUnsupportedOperationType)
		},
		func() (interface{}, error) {
			if id, ok := operation.Data.(int); ok {
				err := b.client.Tags().Delete(ctx, id)
				if err != nil {
					return nil, fmt.Errorf("failed to delete tag: %w", err)
				}

				return nil, nil
			}

			return nil, fmt.Errorf("%w delete", ErrInvalidDataTypeTag)
		},
		func() (interface{}, error) {
			return nil, fmt.Errorf("%w: tag get", ErrUnsupportedOperationType)
		},
	)
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// AddCreateOrganization adds an organization creation operation.
func (b *BatchBuilder) AddCreateOrganization(id string, organization Record) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "create",
		Resource: "organization",
		Data:     organization,
	})

	return b
}

// AddUpdateOrganization adds an organization update operation.
func (b *BatchBuilder) AddUpdateOrganization(id string, organizationID int, body Record) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "update",
		Resource: "organization",
		Data: &UpdateData{
			ID:   organizationID,
			Body: body,
		},
	})

	return b
}

// AddDeleteOrganization adds an organization deletion operation.
func (b *BatchBuilder) AddDeleteOrganization(id string, organizationID int) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "delete",
		Resource: "organization",
		Data:     organizationID,
	})

	return b
}

// AddGetOrganization adds an organization get operation.
func (b *BatchBuilder) AddGetOrganization(id string, organizationID int) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "get",
		Resource: "organization",
		Data:     organizationID,
	})

	return b
}

// AddGetDevice adds a device get operation.
func (b *BatchBuilder) AddGetDevice(id string, deviceID int) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "get",
		Resource: "device",
		Data:     deviceID,
	})

	return b
}

// AddUpdateDevice adds a device update operation.
func (b *BatchBuilder) AddUpdateDevice(id string, deviceID int, body Record) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "update",
		Resource: "device",
		Data: &UpdateData{
			ID:   deviceID,
			Body: body,
		},
	})

	return b
}

// AddCreateTag adds a tag creation operation.
func (b *BatchBuilder) AddCreateTag(id string, tag Record) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "create",
		Resource: "tag",
		Data:     tag,
	})

	return b
}

// AddDeleteTag adds a tag deletion operation.
func (b *BatchBuilder) AddDeleteTag(id string, tagID int) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "delete",
		Resource: "tag",
		Data:     tagID,
	})

	return b
}

// AddOperation adds a custom operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}

// BatchTransaction represents a transactional batch of operations.
type BatchTransaction struct {
	operations []BatchOperation
	results    []BatchResult
	executor   *BatchExecutor
	rollback   bool
}

// NewBatchTransaction creates a new batch transaction.
func NewBatchTransaction(executor *BatchExecutor) *BatchTransaction {
	return &BatchTransaction{
		executor:   executor,
		operations: make([]BatchOperation, 0),
		rollback:   true,
	}
}

// Add adds an operation to the transaction.
func (t *BatchTransaction) Add(operation BatchOperation) *BatchTransaction {
	t.operations = append(t.operations, operation)

	return t
}

// SetRollback sets whether to rollback on failure.
func (t *BatchTransaction) SetRollback(rollback bool) *BatchTransaction {
	t.rollback = rollback

	return t
}

// Execute executes the transaction.
func (t *BatchTransaction) Execute(ctx context.Context) ([]BatchResult, error) {
	results, err := t.executor.Execute(ctx, t.operations)
	t.results = results

	var failedOps []string

	for _, result := range results {
		if !result.Success {
			failedOps = append(failedOps, result.ID)
		}
	}

	if len(failedOps) > 0 && t.rollback {
		t.performRollback(ctx)

		return results, fmt.Errorf("%w, %d operations failed: %v", ErrTransactionFailed, len(failedOps), failedOps)
	}

	return results, err
}

// performRollback deletes resources created by the successful operations.
// Deletes and updates cannot be undone without the original state, so those
// are left for manual intervention.
func (t *BatchTransaction) performRollback(ctx context.Context) {
	var rollbackOps []BatchOperation

	for i, result := range t.results {
		if !result.Success || t.operations[i].Type != "create" {
			continue
		}

		created, ok := result.Data.(Record)
		if !ok {
			continue
		}

		id, ok := RecordID(created)
		if !ok {
			continue
		}

		rollbackOps = append(rollbackOps, BatchOperation{
			ID:       "rollback_" + t.operations[i].ID,
			Type:     "delete",
			Resource: t.operations[i].Resource,
			Data:     int(id),
		})
	}

	if len(rollbackOps) > 0 {
		_, _ = t.executor.Execute(ctx, rollbackOps)
	}
}
