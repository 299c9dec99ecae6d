package ninja_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jstrn/ninjarmm/pkg/ninja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements ninja.Client for testing
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Organizations() ninja.OrganizationsClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(ninja.OrganizationsClient)
}

func (m *MockClient) Devices() ninja.DevicesClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(ninja.DevicesClient)
}

func (m *MockClient) Queries() ninja.QueriesClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(ninja.QueriesClient)
}

func (m *MockClient) Tags() ninja.TagsClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(ninja.TagsClient)
}

func (m *MockClient) SetTimestampConversion(enabled bool) {
	m.Called(enabled)
}

func (m *MockClient) TimestampConversionEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockOrganizationsClient implements ninja.OrganizationsClient for testing
type MockOrganizationsClient struct {
	mock.Mock
}

func (m *MockOrganizationsClient) List(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ninja.Record), args.Error(1)
}

func (m *MockOrganizationsClient) ListAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ninja.Record), args.Error(1)
}

func (m *MockOrganizationsClient) IterAll(ctx context.Context, params *ninja.QueryParams) *ninja.OffsetIterator {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*ninja.OffsetIterator)
}

func (m *MockOrganizationsClient) Get(ctx context.Context, organizationID int) (ninja.Record, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ninja.Record), args.Error(1)
}

func (m *MockOrganizationsClient) Create(ctx context.Context, organization ninja.Record) (ninja.Record, error) {
	args := m.Called(ctx, organization)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ninja.Record), args.Error(1)
}

func (m *MockOrganizationsClient) Update(ctx context.Context, organizationID int, organization ninja.Record) (ninja.Record, error) {
	args := m.Called(ctx, organizationID, organization)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ninja.Record), args.Error(1)
}

func (m *MockOrganizationsClient) Delete(ctx context.Context, organizationID int) error {
	args := m.Called(ctx, organizationID)
	return args.Error(0)
}

// MockDevicesClient implements ninja.DevicesClient for testing
type MockDevicesClient struct {
	mock.Mock
}

func (m *MockDevicesClient) List(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ninja.Record), args.Error(1)
}

func (m *MockDevicesClient) ListAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ninja.Record), args.Error(1)
}

func (m *MockDevicesClient) IterAll(ctx context.Context, params *ninja.QueryParams) *ninja.OffsetIterator {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*ninja.OffsetIterator)
}

func (m *MockDevicesClient) Get(ctx context.Context, deviceID int) (ninja.Record, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ninja.Record), args.Error(1)
}

func (m *MockDevicesClient) Update(ctx context.Context, deviceID int, device ninja.Record) (ninja.Record, error) {
	args := m.Called(ctx, deviceID, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ninja.Record), args.Error(1)
}

func (m *MockDevicesClient) Search(ctx context.Context, params *ninja.QueryParams) (*ninja.QueryResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ninja.QueryResult), args.Error(1)
}

func (m *MockDevicesClient) SearchAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ninja.Record), args.Error(1)
}

func (m *MockDevicesClient) IterSearch(ctx context.Context, params *ninja.QueryParams) *ninja.CursorIterator {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*ninja.CursorIterator)
}

func (m *MockDevicesClient) Reboot(ctx context.Context, deviceID int, mode string) error {
	args := m.Called(ctx, deviceID, mode)
	return args.Error(0)
}

func (m *MockDevicesClient) Approve(ctx context.Context, mode ninja.DeviceApproval, deviceIDs []int) error {
	args := m.Called(ctx, mode, deviceIDs)
	return args.Error(0)
}

func (m *MockDevicesClient) SetMaintenance(ctx context.Context, deviceID int, req *ninja.MaintenanceRequest) error {
	args := m.Called(ctx, deviceID, req)
	return args.Error(0)
}

func (m *MockDevicesClient) CancelMaintenance(ctx context.Context, deviceID int) error {
	args := m.Called(ctx, deviceID)
	return args.Error(0)
}

// MockTagsClient implements ninja.TagsClient for testing
type MockTagsClient struct {
	mock.Mock
}

func (m *MockTagsClient) List(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ninja.Record), args.Error(1)
}

func (m *MockTagsClient) ListAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ninja.Record), args.Error(1)
}

func (m *MockTagsClient) IterAll(ctx context.Context, params *ninja.QueryParams) *ninja.OffsetIterator {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*ninja.OffsetIterator)
}

func (m *MockTagsClient) Create(ctx context.Context, tag ninja.Record) (ninja.Record, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ninja.Record), args.Error(1)
}

func (m *MockTagsClient) Delete(ctx context.Context, tagID int) error {
	args := m.Called(ctx, tagID)
	return args.Error(0)
}

func TestBatchExecutor_Execute(t *testing.T) {
	mockClient := &MockClient{}
	mockDevices := &MockDevicesClient{}
	mockClient.On("Devices").Return(mockDevices)

	executor := ninja.NewBatchExecutor(mockClient, 2)
	ctx := context.Background()

	device1 := ninja.Record{"id": float64(1), "systemName": "WS-001"}
	device2 := ninja.Record{"id": float64(2), "systemName": "WS-002"}

	mockDevices.On("Get", mock.Anything, 1).Return(device1, nil)
	mockDevices.On("Get", mock.Anything, 2).Return(device2, nil)

	operations := []ninja.BatchOperation{
		{
			ID:       "op1",
			Type:     "get",
			Resource: "device",
			Data:     1,
		},
		{
			ID:       "op2",
			Type:     "get",
			Resource: "device",
			Data:     2,
		},
	}

	results, err := executor.Execute(ctx, operations)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Check results
	for _, result := range results {
		assert.True(t, result.Success)
		assert.NoError(t, result.Error)
		assert.NotNil(t, result.Data)
		assert.True(t, result.Duration > 0)
	}

	mockClient.AssertExpectations(t)
	mockDevices.AssertExpectations(t)
}

func TestBatchExecutor_WithCallback(t *testing.T) {
	mockClient := &MockClient{}
	mockOrgs := &MockOrganizationsClient{}
	mockClient.On("Organizations").Return(mockOrgs)

	executor := ninja.NewBatchExecutor(mockClient, 1)
	ctx := context.Background()

	org := ninja.Record{"id": float64(7), "name": "Acme"}
	mockOrgs.On("Get", mock.Anything, 7).Return(org, nil)

	var callbackCalled bool
	var callbackResult *ninja.BatchResult

	operation := ninja.BatchOperation{
		ID:       "op1",
		Type:     "get",
		Resource: "organization",
		Data:     7,
		Callback: func(result *ninja.BatchResult) {
			callbackCalled = true
			callbackResult = result
		},
	}

	_, err := executor.Execute(ctx, []ninja.BatchOperation{operation})
	require.NoError(t, err)

	assert.True(t, callbackCalled)
	assert.NotNil(t, callbackResult)
	assert.True(t, callbackResult.Success)
	assert.Equal(t, "op1", callbackResult.ID)

	mockClient.AssertExpectations(t)
	mockOrgs.AssertExpectations(t)
}

func TestBatchExecutor_WithError(t *testing.T) {
	mockClient := &MockClient{}
	mockDevices := &MockDevicesClient{}
	mockClient.On("Devices").Return(mockDevices)

	executor := ninja.NewBatchExecutor(mockClient, 1)
	ctx := context.Background()

	mockDevices.On("Get", mock.Anything, 42).Return(nil, fmt.Errorf("device not found"))

	operation := ninja.BatchOperation{
		ID:       "op1",
		Type:     "get",
		Resource: "device",
		Data:     42,
	}

	results, err := executor.Execute(ctx, []ninja.BatchOperation{operation})
	require.NoError(t, err) // Execute itself shouldn't fail
	assert.Len(t, results, 1)

	result := results[0]
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "device not found")

	mockClient.AssertExpectations(t)
	mockDevices.AssertExpectations(t)
}

func TestBatchExecutor_InvalidData(t *testing.T) {
	mockClient := &MockClient{}
	mockOrgs := &MockOrganizationsClient{}
	mockClient.On("Organizations").Return(mockOrgs).Maybe()

	executor := ninja.NewBatchExecutor(mockClient, 1)
	ctx := context.Background()

	// Get expects an int id, not a string.
	operation := ninja.BatchOperation{
		ID:       "op1",
		Type:     "get",
		Resource: "organization",
		Data:     "not-an-id",
	}

	results, err := executor.Execute(ctx, []ninja.BatchOperation{operation})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.False(t, result.Success)
	require.Error(t, result.Error)
	assert.ErrorIs(t, result.Error, ninja.ErrInvalidDataTypeOrganization)
}

func TestBatchExecutor_UnsupportedDeviceOperations(t *testing.T) {
	mockClient := &MockClient{}
	mockDevices := &MockDevicesClient{}
	mockClient.On("Devices").Return(mockDevices).Maybe()

	executor := ninja.NewBatchExecutor(mockClient, 1)
	ctx := context.Background()

	operations := []ninja.BatchOperation{
		{ID: "create", Type: "create", Resource: "device", Data: ninja.Record{}},
		{ID: "delete", Type: "delete", Resource: "device", Data: 1},
	}

	results, err := executor.Execute(ctx, operations)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, result := range results {
		assert.False(t, result.Success)
		assert.ErrorIs(t, result.Error, ninja.ErrUnsupportedOperationType)
	}
}

func TestBatchBuilder(t *testing.T) {
	builder := ninja.NewBatchBuilder()

	builder.
		AddCreateOrganization("create-1", ninja.Record{"name": "Acme"}).
		AddUpdateOrganization("update-1", 7, ninja.Record{"name": "Acme Corp"}).
		AddDeleteOrganization("delete-1", 8).
		AddGetOrganization("get-1", 9).
		AddUpdateDevice("update-2", 42, ninja.Record{"displayName": "WS-001"}).
		AddGetDevice("get-2", 43).
		AddCreateTag("create-2", ninja.Record{"name": "vip"}).
		AddDeleteTag("delete-2", 5)

	operations := builder.Build()
	assert.Len(t, operations, 8)

	assert.Equal(t, "create-1", operations[0].ID)
	assert.Equal(t, "create", operations[0].Type)
	assert.Equal(t, "organization", operations[0].Resource)

	assert.Equal(t, "update-1", operations[1].ID)
	assert.Equal(t, "update", operations[1].Type)

	assert.Equal(t, "delete-1", operations[2].ID)
	assert.Equal(t, "delete", operations[2].Type)

	assert.Equal(t, "get-1", operations[3].ID)
	assert.Equal(t, "get", operations[3].Type)

	assert.Equal(t, "device", operations[4].Resource)
	assert.Equal(t, "device", operations[5].Resource)
	assert.Equal(t, "tag", operations[6].Resource)
	assert.Equal(t, "tag", operations[7].Resource)
}

func TestBatchExecutor_UnsupportedResource(t *testing.T) {
	mockClient := &MockClient{}
	executor := ninja.NewBatchExecutor(mockClient, 1)
	executor.SetTimeout(1 * time.Millisecond)

	operation := ninja.BatchOperation{
		ID:       "op1",
		Type:     "get",
		Resource: "alert",
		Data:     1,
	}

	ctx := context.Background()
	results, err := executor.Execute(ctx, []ninja.BatchOperation{operation})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	result := results[0]
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, ninja.ErrUnsupportedResourceType)
}

func TestBatchTransaction_RollbackOnFailure(t *testing.T) {
	mockClient := &MockClient{}
	mockOrgs := &MockOrganizationsClient{}
	mockTags := &MockTagsClient{}
	mockClient.On("Organizations").Return(mockOrgs)
	mockClient.On("Tags").Return(mockTags)

	created := ninja.Record{"id": float64(101), "name": "Acme"}
	mockOrgs.On("Create", mock.Anything, ninja.Record{"name": "Acme"}).Return(created, nil)
	mockOrgs.On("Delete", mock.Anything, 101).Return(nil)
	mockTags.On("Create", mock.Anything, ninja.Record{"name": "vip"}).Return(nil, fmt.Errorf("boom"))

	executor := ninja.NewBatchExecutor(mockClient, 1)
	transaction := ninja.NewBatchTransaction(executor)

	transaction.
		Add(ninja.BatchOperation{ID: "org", Type: "create", Resource: "organization", Data: ninja.Record{"name": "Acme"}}).
		Add(ninja.BatchOperation{ID: "tag", Type: "create", Resource: "tag", Data: ninja.Record{"name": "vip"}})

	results, err := transaction.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ninja.ErrTransactionFailed)
	assert.Len(t, results, 2)

	// The successful create must have been rolled back with a delete.
	mockOrgs.AssertCalled(t, "Delete", mock.Anything, 101)
}

func TestBatchTransaction_NoRollback(t *testing.T) {
	mockClient := &MockClient{}
	mockTags := &MockTagsClient{}
	mockClient.On("Tags").Return(mockTags)

	mockTags.On("Create", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("boom"))

	executor := ninja.NewBatchExecutor(mockClient, 1)
	transaction := ninja.NewBatchTransaction(executor).SetRollback(false)

	transaction.Add(ninja.BatchOperation{ID: "tag", Type: "create", Resource: "tag", Data: ninja.Record{"name": "vip"}})

	results, err := transaction.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}
