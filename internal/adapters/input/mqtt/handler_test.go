package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"floodlight-bridge/internal/infrastructure/logging"
	infmqtt "floodlight-bridge/internal/infrastructure/mqtt"
)

type MockController struct {
	mock.Mock
}

func (m *MockController) Control(ctx context.Context, nativeID string, on *bool, brightness *int) error {
	args := m.Called(ctx, nativeID, on, brightness)
	return args.Error(0)
}

type fakeSubscriber struct {
	topic   string
	qos     byte
	handler infmqtt.MessageHandler
	err     error
}

func (s *fakeSubscriber) Subscribe(topic string, qos byte, handler infmqtt.MessageHandler) error {
	s.topic, s.qos, s.handler = topic, qos, handler
	return s.err
}

func newHandler(c Controller) *CommandHandler {
	return NewCommandHandler(c, infmqtt.Topics{Prefix: "floodlight"}, time.Second, logging.Discard())
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func TestCommandHandler_Start(t *testing.T) {
	h := newHandler(new(MockController))

	sub := &fakeSubscriber{}
	require.NoError(t, h.Start(sub, 1))
	assert.Equal(t, "floodlight/command/+", sub.topic)
	assert.Equal(t, byte(1), sub.qos)
	assert.NotNil(t, sub.handler)

	assert.Error(t, h.Start(&fakeSubscriber{err: infmqtt.ErrNotConnected}, 1))
}

func TestCommandHandler_Handle(t *testing.T) {
	c := new(MockController)
	h := newHandler(c)

	c.On("Control", mock.Anything, "foscamfl:0a1b", boolPtr(true), intPtr(70)).Return(nil).Once()
	require.NoError(t, h.Handle("floodlight/command/foscamfl:0a1b", []byte(`{"on":true,"brightness":70}`)))
	h.Wait()

	c.On("Control", mock.Anything, "foscamfl:0a1b", boolPtr(false), (*int)(nil)).Return(nil).Once()
	require.NoError(t, h.Handle("floodlight/command/foscamfl:0a1b", []byte(`{"on":false}`)))
	h.Wait()

	c.AssertExpectations(t)
}

func TestCommandHandler_HandleErrors(t *testing.T) {
	c := new(MockController)
	h := newHandler(c)

	err := h.Handle("floodlight/state/foscamfl:0a1b", []byte(`{"on":true}`))
	assert.ErrorIs(t, err, ErrUnknownTopic)

	err = h.Handle("floodlight/command/foscamfl:0a1b", []byte(`not json`))
	assert.Error(t, err)

	c.On("Control", mock.Anything, "foscamfl:0a1b", (*bool)(nil), intPtr(10)).Return(errors.New("device unreachable"))
	assert.NoError(t, h.Handle("floodlight/command/foscamfl:0a1b", []byte(`{"brightness":10}`)))
	h.Wait()

	c.AssertNumberOfCalls(t, "Control", 1)
}

func TestCommandHandler_SlowDeviceDoesNotBlockDispatch(t *testing.T) {
	c := new(MockController)
	h := newHandler(c)

	release := make(chan struct{})
	c.On("Control", mock.Anything, "foscamfl:0a1b", boolPtr(true), (*int)(nil)).Return(nil).
		Run(func(mock.Arguments) { <-release })

	returned := make(chan error, 1)
	go func() {
		returned <- h.Handle("floodlight/command/foscamfl:0a1b", []byte(`{"on":true}`))
	}()

	select {
	case err := <-returned:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Handle waited for the device")
	}

	close(release)
	h.Wait()
	c.AssertExpectations(t)
}

func TestCommandHandler_CommandTimeout(t *testing.T) {
	c := new(MockController)
	h := NewCommandHandler(c, infmqtt.Topics{Prefix: "floodlight"}, 20*time.Millisecond, logging.Discard())

	var deadline time.Time
	var hasDeadline bool
	c.On("Control", mock.Anything, "foscamfl:0a1b", boolPtr(false), (*int)(nil)).Return(nil).
		Run(func(args mock.Arguments) {
			deadline, hasDeadline = args.Get(0).(context.Context).Deadline()
		})

	require.NoError(t, h.Handle("floodlight/command/foscamfl:0a1b", []byte(`{"on":false}`)))
	h.Wait()

	assert.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now(), deadline, time.Second)
}
