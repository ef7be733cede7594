package common

import "github.com/stretchr/testify/mock"

// MockTxnIDSource is a mock type for the TxnIDSource type
type MockTxnIDSource struct {
	mock.Mock
}

var _ TxnIDSource = &MockTxnIDSource{}

// NextTxnID provides a mock function with no fields
func (_m *MockTxnIDSource) NextTxnID() TxnID {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for NextTxnID")
	}

	var r0 TxnID
	if rf, ok := ret.Get(0).(func() TxnID); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(TxnID)
	}

	return r0
}

// NewMockTxnIDSource creates a new instance of MockTxnIDSource. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTxnIDSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTxnIDSource {
	m := &MockTxnIDSource{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
