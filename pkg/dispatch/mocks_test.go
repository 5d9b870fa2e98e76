package dispatch

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cbus-station/cancmd-go/pkg/programming"
)

type stubProgrammer struct {
	mock.Mock
}

func (s *stubProgrammer) Submit(req programming.Request) error {
	return s.Called(req).Error(0)
}

type stubThrottles struct {
	mock.Mock
}

func (s *stubThrottles) Acquire(addr uint16, mode AcquireMode) (LocoReport, error) {
	args := s.Called(addr, mode)
	return args.Get(0).(LocoReport), args.Error(1)
}

func (s *stubThrottles) Release(session uint8) error {
	return s.Called(session).Error(0)
}

func (s *stubThrottles) KeepAlive(session uint8) error {
	return s.Called(session).Error(0)
}

func (s *stubThrottles) Query(session uint8) (LocoReport, error) {
	args := s.Called(session)
	return args.Get(0).(LocoReport), args.Error(1)
}

func (s *stubThrottles) SetSpeedDir(session uint8, speedDir byte) error {
	return s.Called(session, speedDir).Error(0)
}

func (s *stubThrottles) SetSpeedMode(session uint8, flags byte) error {
	return s.Called(session, flags).Error(0)
}

func (s *stubThrottles) SetFunctions(session uint8, fnRange byte, bits byte) error {
	return s.Called(session, fnRange, bits).Error(0)
}

func (s *stubThrottles) SetFunction(session uint8, fn byte, on bool) error {
	return s.Called(session, fn, on).Error(0)
}

func (s *stubThrottles) StopAll() {
	s.Called()
}

type stubAccessories struct {
	mock.Mock
}

func (s *stubAccessories) Switch(addr uint16, on bool) error {
	return s.Called(addr, on).Error(0)
}

func (s *stubAccessories) SendPacket(repeat uint8, packet []byte) error {
	return s.Called(repeat, packet).Error(0)
}

type stubBootloader struct {
	mock.Mock
}

func (s *stubBootloader) EnterBootloader(ctx context.Context) error {
	return s.Called(ctx).Error(0)
}
