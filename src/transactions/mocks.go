package transactions

import "github.com/stretchr/testify/mock"

// MockCompensator is a mock type for the Compensator type
type MockCompensator struct {
	mock.Mock
}

var _ Compensator = &MockCompensator{}

// Compensate provides a mock function with given fields: r
func (_m *MockCompensator) Compensate(r UndoRecord) error {
	ret := _m.Called(r)

	if len(ret) == 0 {
		panic("no return value specified for Compensate")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(UndoRecord) error); ok {
		r0 = rf(r)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockCompensator creates a new instance of MockCompensator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockCompensator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompensator {
	m := &MockCompensator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
