package cryptoauth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// MockExecutor replays queued responses and records every command.
type MockExecutor struct {
	responses [][]byte
	errs      map[int]error
	calls     [][]byte
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{errs: make(map[int]error)}
}

func (m *MockExecutor) Execute(ctx context.Context, cmd []byte) ([]byte, error) {
	m.calls = append(m.calls, append([]byte(nil), cmd...))
	i := len(m.calls) - 1

	if err := m.errs[i]; err != nil {
		return nil, err
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return protocol.EncodeStatus(protocol.StatusExecutionError), nil
}

func (m *MockExecutor) AddResponse(data []byte) {
	m.responses = append(m.responses, protocol.EncodeResponse(data))
}

func (m *MockExecutor) AddStatus(code byte) {
	m.responses = append(m.responses, protocol.EncodeStatus(code))
}

func (m *MockExecutor) SetError(call int, err error) {
	m.errs[call] = err
}

// Command decodes the i-th recorded command.
func (m *MockExecutor) Command(t *testing.T, i int) *protocol.Packet {
	t.Helper()
	require.Greater(t, len(m.calls), i, "command %d was not sent", i)
	pkt, err := protocol.DecodeCommand(m.calls[i])
	require.NoError(t, err)
	return pkt
}

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

type failingAllocator struct {
	released int
}

func (a *failingAllocator) Acquire(size int) ([]byte, error) {
	return nil, errors.New("pool exhausted")
}

func (a *failingAllocator) Release(buf []byte) {
	a.released++
}

type recordingAllocator struct {
	HeapAllocator
	acquired, released int
	last               []byte
}

func (a *recordingAllocator) Acquire(size int) ([]byte, error) {
	a.acquired++
	buf, err := a.HeapAllocator.Acquire(size)
	a.last = buf
	return buf, err
}

func (a *recordingAllocator) Release(buf []byte) {
	a.released++
	a.HeapAllocator.Release(buf)
}

func fill(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestNewPanicsOnNilExecutor(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestDefaultConfig(t *testing.T) {
	c := New(NewMockExecutor())

	assert.Equal(t, protocol.ATECC608, c.Variant())
	assert.Equal(t, protocol.DefaultMaxPacketSize, c.MaxPacketSize())
	assert.Nil(t, c.config.Logger)
	assert.IsType(t, HeapAllocator{}, c.config.Allocator)
}

func TestOptions(t *testing.T) {
	logger := &MockLogger{}
	calls := 0

	c := New(NewMockExecutor(),
		WithVariant(protocol.ATECC508A),
		WithMaxPacketSize(96),
		WithLogger(logger),
		WithAllocator(nil),
		WithStepCallback(func(Step) { calls++ }),
	)

	assert.Equal(t, protocol.ATECC508A, c.Variant())
	assert.Equal(t, 96, c.MaxPacketSize())
	assert.Same(t, logger, c.config.Logger)
	assert.NotNil(t, c.config.Allocator, "nil allocator is ignored")

	c.reportStep("op", StateIdle, false, time.Now())
	assert.Equal(t, 1, calls)
}

func TestWithMaxPacketSizeIgnoresInvalid(t *testing.T) {
	for _, size := range []int{0, 6, 256, -1} {
		c := New(NewMockExecutor(), WithMaxPacketSize(size))
		assert.Equal(t, protocol.DefaultMaxPacketSize, c.MaxPacketSize(), "size %d", size)
	}
}

func TestSecureBoot(t *testing.T) {
	digest := fill(32, 0x11)
	signature := fill(64, 0x22)
	mac := fill(32, 0x33)

	tests := []struct {
		name      string
		mode      byte
		signature []byte
		response  []byte
		wantLen   int
		wantMAC   []byte
	}{
		{"full store", protocol.SecureBootModeFullStore, nil, protocol.EncodeStatus(0), 32, nil},
		{"full store ignores signature", protocol.SecureBootModeFullStore, signature, protocol.EncodeStatus(0), 32, nil},
		{"full", protocol.SecureBootModeFull, signature, protocol.EncodeStatus(0), 96, nil},
		{"full with MAC", protocol.SecureBootModeFull | protocol.SecureBootModeEncMACFlag, signature, protocol.EncodeResponse(mac), 96, mac},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewMockExecutor()
			exec.responses = append(exec.responses, tt.response)
			c := New(exec)

			got, err := c.SecureBoot(context.Background(), tt.mode, 0, digest, tt.signature)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMAC, got)

			pkt := exec.Command(t, 0)
			assert.Equal(t, byte(protocol.OpSecureBoot), pkt.Opcode)
			assert.Equal(t, tt.mode, pkt.Param1)
			require.Len(t, pkt.Data, tt.wantLen)
			assert.Equal(t, digest, pkt.Data[:32])
		})
	}
}

func TestSecureBootRejectsBeforeTransport(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		mode      byte
		digest    []byte
		signature []byte
		wantErr   error
	}{
		{"nil digest", nil, protocol.SecureBootModeFullStore, nil, nil, protocol.ErrBadParameter},
		{"missing signature", nil, protocol.SecureBootModeFull, fill(32, 1), nil, protocol.ErrBadParameter},
		{"bad mode", nil, 0x02, fill(32, 1), nil, protocol.ErrBadParameter},
		{"unsupported variant", []Option{WithVariant(protocol.ATECC508A)}, protocol.SecureBootModeFullStore, fill(32, 1), nil, ErrUnsupported},
		{"too large for transport", []Option{WithMaxPacketSize(64)}, protocol.SecureBootModeFull, fill(32, 1), fill(64, 2), protocol.ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewMockExecutor()
			c := New(exec, tt.opts...)

			_, err := c.SecureBoot(context.Background(), tt.mode, 0, tt.digest, tt.signature)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, exec.calls, "executor must not be called")
		})
	}
}

func TestVerifyExternalWithoutPublicKey(t *testing.T) {
	exec := NewMockExecutor()
	c := New(exec)

	_, err := c.Verify(context.Background(), VerifyRequest{
		Mode:      protocol.VerifyModeExternal,
		KeyID:     protocol.VerifyKeyP256,
		Signature: fill(64, 1),
	})
	assert.ErrorIs(t, err, protocol.ErrBadParameter)
	assert.Empty(t, exec.calls)

	verified, err := c.VerifyExtern(context.Background(), fill(32, 0), fill(64, 1), nil)
	assert.ErrorIs(t, err, protocol.ErrBadParameter)
	assert.False(t, verified)
	assert.Empty(t, exec.calls, "message must not be loaded")
}

func TestVerifyMACOnlyForStoredAndExternal(t *testing.T) {
	modes := []struct {
		name string
		mode byte
		req  VerifyRequest
	}{
		{"validate", protocol.VerifyModeValidate, VerifyRequest{KeyID: 3, OtherData: fill(19, 3)}},
		{"invalidate", protocol.VerifyModeInvalidate, VerifyRequest{KeyID: 3, OtherData: fill(19, 3)}},
		{"validate external", protocol.VerifyModeValidateExternal, VerifyRequest{KeyID: protocol.VerifyKeyP256, PublicKey: fill(64, 2)}},
	}

	for _, tt := range modes {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewMockExecutor()
			c := New(exec)

			req := tt.req
			req.Mode = tt.mode | protocol.VerifyModeMACFlag
			req.Signature = fill(64, 1)

			_, err := c.Verify(context.Background(), req)
			assert.ErrorIs(t, err, protocol.ErrBadParameter)
			assert.Empty(t, exec.calls, "executor must not be called")
		})
	}
}

func TestVerifyExternalExceedsMaxPacketSize(t *testing.T) {
	exec := NewMockExecutor()
	c := New(exec, WithMaxPacketSize(96))

	_, err := c.Verify(context.Background(), VerifyRequest{
		Mode:      protocol.VerifyModeExternal,
		KeyID:     protocol.VerifyKeyP256,
		Signature: fill(64, 1),
		PublicKey: fill(64, 2),
	})
	assert.ErrorIs(t, err, protocol.ErrInvalidSize)

	_, err = c.VerifyExtern(context.Background(), fill(32, 0), fill(64, 1), fill(64, 2))
	assert.ErrorIs(t, err, protocol.ErrInvalidSize)

	_, err = c.VerifyExternMAC(context.Background(), fill(32, 0), fill(64, 1), fill(64, 2), fill(32, 3), fill(32, 4))
	assert.ErrorIs(t, err, protocol.ErrInvalidSize)

	assert.Empty(t, exec.calls, "executor must not be called")

	// Stored mode still fits.
	exec.AddStatus(protocol.StatusSuccess)
	_, err = c.Verify(context.Background(), VerifyRequest{Mode: protocol.VerifyModeStored, KeyID: 3, Signature: fill(64, 1)})
	assert.NoError(t, err)
}

func TestVerifyPayloads(t *testing.T) {
	sig := fill(64, 0xA1)
	pub := fill(64, 0xB2)
	other := fill(19, 0xC3)

	tests := []struct {
		name string
		req  VerifyRequest
		want []byte
	}{
		{"stored", VerifyRequest{Mode: protocol.VerifyModeStored, KeyID: 4, Signature: sig}, sig},
		{"external", VerifyRequest{Mode: protocol.VerifyModeExternal, KeyID: 4, Signature: sig, PublicKey: pub}, append(bytes.Clone(sig), pub...)},
		{"validate", VerifyRequest{Mode: protocol.VerifyModeValidate, KeyID: 4, Signature: sig, OtherData: other}, append(bytes.Clone(sig), other...)},
		{"invalidate", VerifyRequest{Mode: protocol.VerifyModeInvalidate, KeyID: 4, Signature: sig, OtherData: other}, append(bytes.Clone(sig), other...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewMockExecutor()
			exec.AddStatus(protocol.StatusSuccess)
			c := New(exec)

			mac, err := c.Verify(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Nil(t, mac)

			pkt := exec.Command(t, 0)
			assert.Equal(t, tt.want, pkt.Data)
			assert.Equal(t, uint16(4), pkt.Param2)
		})
	}
}

func TestVerifyWrappersNormaliseMismatch(t *testing.T) {
	ctx := context.Background()
	sig := fill(64, 1)

	wrappers := []struct {
		name        string
		loadMessage bool
		call        func(c *Client) (bool, error)
	}{
		{"extern", true, func(c *Client) (bool, error) {
			return c.VerifyExtern(ctx, fill(32, 0), sig, fill(64, 2))
		}},
		{"stored", true, func(c *Client) (bool, error) {
			return c.VerifyStored(ctx, fill(32, 0), sig, 5)
		}},
		{"stored with tempkey", false, func(c *Client) (bool, error) {
			return c.VerifyStoredWithTempKey(ctx, sig, 5)
		}},
		{"validate", false, func(c *Client) (bool, error) {
			return c.VerifyValidate(ctx, 5, sig, fill(19, 3))
		}},
		{"invalidate", false, func(c *Client) (bool, error) {
			return c.VerifyInvalidate(ctx, 5, sig, fill(19, 3))
		}},
	}

	outcomes := []struct {
		status   byte
		verified bool
		wantErr  bool
	}{
		{protocol.StatusSuccess, true, false},
		{protocol.StatusCheckMacVerifyFailed, false, false},
		{protocol.StatusExecutionError, false, true},
	}

	for _, w := range wrappers {
		t.Run(w.name, func(t *testing.T) {
			for _, tc := range outcomes {
				exec := NewMockExecutor()
				if w.loadMessage {
					exec.AddStatus(protocol.StatusSuccess)
				}
				exec.AddStatus(tc.status)
				c := New(exec)

				verified, err := w.call(c)
				assert.Equal(t, tc.verified, verified, "status 0x%02X", tc.status)
				if !tc.wantErr {
					assert.NoError(t, err)
					continue
				}

				assert.ErrorIs(t, err, protocol.ErrExecutionFailure)
				var se *protocol.StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tc.status, se.StatusCode)
			}
		})
	}
}

func TestMessageTargetFollowsVariant(t *testing.T) {
	tests := []struct {
		variant     protocol.Variant
		nonceParam1 byte
		verifyMode  byte
	}{
		{protocol.ATECC508A, protocol.NonceModePassthrough | protocol.NonceModeTargetTempKey, protocol.VerifyModeStored | protocol.VerifyModeSourceTempKey},
		{protocol.ATECC608, protocol.NonceModePassthrough | protocol.NonceModeTargetMsgDigBuf, protocol.VerifyModeStored | protocol.VerifyModeSourceMsgDigBuf},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			exec := NewMockExecutor()
			exec.AddStatus(protocol.StatusSuccess)
			exec.AddStatus(protocol.StatusSuccess)
			c := New(exec, WithVariant(tt.variant))

			message := fill(32, 0x42)
			verified, err := c.VerifyStored(context.Background(), message, fill(64, 1), 7)
			require.NoError(t, err)
			assert.True(t, verified)

			load := exec.Command(t, 0)
			assert.Equal(t, byte(protocol.OpNonce), load.Opcode)
			assert.Equal(t, tt.nonceParam1, load.Param1)
			assert.Equal(t, message, load.Data)

			verify := exec.Command(t, 1)
			assert.Equal(t, byte(protocol.OpVerify), verify.Opcode)
			assert.Equal(t, tt.verifyMode, verify.Param1)
		})
	}
}

func TestVerifyMACUnsupportedOn508A(t *testing.T) {
	exec := NewMockExecutor()
	c := New(exec, WithVariant(protocol.ATECC508A))

	_, err := c.VerifyStoredMAC(context.Background(), fill(32, 0), fill(64, 1), 3, fill(32, 2), fill(32, 3))
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, err, protocol.ErrBadParameter)

	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, protocol.ATECC508A, ue.Variant)
	assert.Empty(t, exec.calls)
}

func TestVerifyMACInputSizes(t *testing.T) {
	exec := NewMockExecutor()
	c := New(exec)
	ctx := context.Background()

	_, err := c.VerifyStoredMAC(ctx, fill(31, 0), fill(64, 1), 3, fill(32, 2), fill(32, 3))
	assert.ErrorIs(t, err, protocol.ErrBadParameter)

	_, err = c.VerifyStoredMAC(ctx, fill(32, 0), fill(64, 1), 3, fill(20, 2), fill(32, 3))
	assert.ErrorIs(t, err, protocol.ErrBadParameter)

	_, err = c.VerifyStoredMAC(ctx, fill(32, 0), fill(64, 1), 3, fill(32, 2), nil)
	assert.ErrorIs(t, err, protocol.ErrBadParameter)

	assert.Empty(t, exec.calls)
}

func TestAllocFailure(t *testing.T) {
	exec := NewMockExecutor()
	alloc := &failingAllocator{}
	c := New(exec, WithAllocator(alloc))

	_, err := c.SecureBoot(context.Background(), protocol.SecureBootModeFullStore, 0, fill(32, 1), nil)
	assert.ErrorIs(t, err, protocol.ErrAllocFailure)
	assert.Empty(t, exec.calls)
	assert.Zero(t, alloc.released, "nothing acquired, nothing released")
}

func TestScratchBufferReleasedAndWiped(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddStatus(protocol.StatusExecutionError)
	alloc := &recordingAllocator{}
	c := New(exec, WithAllocator(alloc))

	_, err := c.SecureBoot(context.Background(), protocol.SecureBootModeFullStore, 0, fill(32, 0xEE), nil)
	require.Error(t, err)

	assert.Equal(t, 1, alloc.acquired)
	assert.Equal(t, 1, alloc.released)
	assert.Equal(t, make([]byte, cap(alloc.last)), alloc.last[:cap(alloc.last)])
}

func TestExecutorFailure(t *testing.T) {
	exec := NewMockExecutor()
	exec.SetError(0, io.ErrUnexpectedEOF)
	logger := &MockLogger{}
	c := New(exec, WithLogger(logger))

	_, err := c.SecureBoot(context.Background(), protocol.SecureBootModeFullStore, 0, fill(32, 1), nil)
	assert.ErrorIs(t, err, protocol.ErrExecutionFailure)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, exec.calls, 1, "no retries")
	assert.NotEmpty(t, logger.errorMsgs)
}

func TestCorruptResponse(t *testing.T) {
	exec := NewMockExecutor()
	exec.responses = append(exec.responses, []byte{0x04, 0x00, 0x03, 0x41})
	c := New(exec)

	_, err := c.SecureBoot(context.Background(), protocol.SecureBootModeFullStore, 0, fill(32, 1), nil)
	assert.ErrorIs(t, err, protocol.ErrExecutionFailure)
	assert.ErrorIs(t, err, protocol.ErrBadCRC)
}

func TestCancelledContext(t *testing.T) {
	exec := NewMockExecutor()
	c := New(exec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SecureBoot(ctx, protocol.SecureBootModeFullStore, 0, fill(32, 1), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, exec.calls)
}

func TestSecureBootMACDeviceMismatch(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse(fill(32, 0x5A))                    // nonce
	exec.AddStatus(protocol.StatusCheckMacVerifyFailed) // secureboot
	c := New(exec)

	verified, err := c.SecureBootMAC(context.Background(), protocol.SecureBootModeFull,
		fill(32, 1), fill(64, 2), fill(20, 3), fill(32, 4))
	require.NoError(t, err)
	assert.False(t, verified)
	assert.Len(t, exec.calls, 2, "config is not read after a miscompare")

	sb := exec.Command(t, 1)
	assert.Equal(t, byte(protocol.SecureBootModeFull|protocol.SecureBootModeEncMACFlag), sb.Param1)
	assert.NotEqual(t, fill(32, 1), sb.Data[:32], "digest must be sent encrypted")
}

func TestSecureBootMACHostMismatch(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse(fill(32, 0x5A))                 // nonce
	exec.AddResponse(fill(32, 0x77))                 // secureboot MAC
	exec.AddResponse([]byte{0x00, 0x00, 0x01, 0x00}) // SecureBootConfig word
	c := New(exec)

	verified, err := c.SecureBootMAC(context.Background(), protocol.SecureBootModeFull,
		fill(32, 1), fill(64, 2), fill(20, 3), fill(32, 4))
	require.NoError(t, err)
	assert.False(t, verified)

	read := exec.Command(t, 2)
	assert.Equal(t, byte(protocol.OpRead), read.Opcode)
	assert.Equal(t, uint16(0x0011), read.Param2)
}

func TestSecureBootMACStepFailures(t *testing.T) {
	digest, sig, numIn, ioKey := fill(32, 1), fill(64, 2), fill(20, 3), fill(32, 4)

	t.Run("nonce", func(t *testing.T) {
		exec := NewMockExecutor()
		exec.AddStatus(protocol.StatusParseError)
		c := New(exec)

		_, err := c.SecureBootMAC(context.Background(), protocol.SecureBootModeFull, digest, sig, numIn, ioKey)
		var se *protocol.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, byte(protocol.StatusParseError), se.StatusCode)
		assert.Len(t, exec.calls, 1)
	})

	t.Run("secureboot", func(t *testing.T) {
		exec := NewMockExecutor()
		exec.AddResponse(fill(32, 0x5A))
		exec.AddStatus(protocol.StatusECCFault)
		c := New(exec)

		_, err := c.SecureBootMAC(context.Background(), protocol.SecureBootModeFull, digest, sig, numIn, ioKey)
		assert.ErrorIs(t, err, protocol.ErrExecutionFailure)
		assert.Len(t, exec.calls, 2)
	})

	t.Run("config read", func(t *testing.T) {
		exec := NewMockExecutor()
		exec.AddResponse(fill(32, 0x5A))
		exec.AddResponse(fill(32, 0x77))
		exec.SetError(2, io.EOF)
		c := New(exec)

		_, err := c.SecureBootMAC(context.Background(), protocol.SecureBootModeFull, digest, sig, numIn, ioKey)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("disabled config", func(t *testing.T) {
		exec := NewMockExecutor()
		exec.AddResponse(fill(32, 0x5A))
		exec.AddResponse(fill(32, 0x77))
		exec.AddResponse([]byte{0x00, 0x00, 0x00, 0x00})
		c := New(exec)

		_, err := c.SecureBootMAC(context.Background(), protocol.SecureBootModeFull, digest, sig, numIn, ioKey)
		assert.ErrorIs(t, err, protocol.ErrBadParameter)
	})

	t.Run("bad inputs", func(t *testing.T) {
		exec := NewMockExecutor()
		c := New(exec)
		ctx := context.Background()

		_, err := c.SecureBootMAC(ctx, protocol.SecureBootModeFull, digest[:31], sig, numIn, ioKey)
		assert.ErrorIs(t, err, protocol.ErrBadParameter)
		_, err = c.SecureBootMAC(ctx, protocol.SecureBootModeFull, digest, sig, numIn[:19], ioKey)
		assert.ErrorIs(t, err, protocol.ErrBadParameter)
		_, err = c.SecureBootMAC(ctx, protocol.SecureBootModeFull, digest, sig, numIn, ioKey[:31])
		assert.ErrorIs(t, err, protocol.ErrBadParameter)
		_, err = c.SecureBootMAC(ctx, protocol.SecureBootModeFull, digest, nil, numIn, ioKey)
		assert.ErrorIs(t, err, protocol.ErrBadParameter)
		_, err = c.SecureBootMAC(ctx, protocol.SecureBootModeFullCopy, digest, sig[:63], numIn, ioKey)
		assert.ErrorIs(t, err, protocol.ErrBadParameter)
		_, err = c.SecureBootMAC(ctx, 0x02, digest, sig, numIn, ioKey)
		assert.ErrorIs(t, err, protocol.ErrBadParameter)
		assert.Empty(t, exec.calls)
	})
}

type staticConfigReader struct {
	data  []byte
	calls int
}

func (r *staticConfigReader) ReadBytesZone(ctx context.Context, zone protocol.Zone, slot uint16, offset, length int) ([]byte, error) {
	r.calls++
	return r.data, nil
}

func TestWithConfigReader(t *testing.T) {
	reader := &staticConfigReader{data: []byte{0x03, 0x00}}
	c := New(NewMockExecutor(), WithConfigReader(reader))

	cfg, err := c.SecureBootConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0003), cfg)
	assert.Equal(t, 1, reader.calls)
}

func TestReadBytesZone(t *testing.T) {
	tests := []struct {
		name      string
		offset    int
		length    int
		words     [][]byte
		wantAddrs []uint16
		want      []byte
	}{
		{
			name:      "SecureBootConfig",
			offset:    70,
			length:    2,
			words:     [][]byte{{0xA0, 0xA1, 0xA2, 0xA3}},
			wantAddrs: []uint16{0x0011},
			want:      []byte{0xA2, 0xA3},
		},
		{
			name:      "spans three words",
			offset:    2,
			length:    8,
			words:     [][]byte{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 10, 11}},
			wantAddrs: []uint16{0x0000, 0x0001, 0x0002},
			want:      []byte{2, 3, 4, 5, 6, 7, 8, 9},
		},
		{
			name:      "crosses block boundary",
			offset:    28,
			length:    8,
			words:     [][]byte{{1, 1, 1, 1}, {2, 2, 2, 2}},
			wantAddrs: []uint16{0x0007, 0x0008},
			want:      []byte{1, 1, 1, 1, 2, 2, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewMockExecutor()
			for _, w := range tt.words {
				exec.AddResponse(w)
			}
			c := New(exec)

			got, err := c.ReadBytesZone(context.Background(), protocol.ZoneConfig, 0, tt.offset, tt.length)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, exec.calls, len(tt.wantAddrs))
			for i, addr := range tt.wantAddrs {
				assert.Equal(t, addr, exec.Command(t, i).Param2)
			}
		})
	}
}

func TestReadBytesZoneBounds(t *testing.T) {
	exec := NewMockExecutor()
	c := New(exec)

	_, err := c.ReadBytesZone(context.Background(), protocol.ZoneConfig, 0, 126, 4)
	assert.ErrorIs(t, err, protocol.ErrBadParameter)
	_, err = c.ReadBytesZone(context.Background(), protocol.ZoneConfig, 0, 0, 0)
	assert.ErrorIs(t, err, protocol.ErrBadParameter)
	assert.Empty(t, exec.calls)
}

func TestNonce(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse(fill(32, 0x20))
	exec.AddStatus(protocol.StatusSuccess)
	c := New(exec)
	ctx := context.Background()

	tk, randOut, err := c.GenerateNonce(ctx, fill(20, 0x10))
	require.NoError(t, err)
	assert.Equal(t, fill(32, 0x20), randOut)
	assert.True(t, tk.Valid)
	assert.True(t, tk.IsRandom())

	require.NoError(t, c.NonceLoad(ctx, protocol.NonceModeTargetMsgDigBuf, fill(64, 0x30)))
	load := exec.Command(t, 1)
	assert.Equal(t, byte(protocol.NonceModePassthrough|protocol.NonceModeTargetMsgDigBuf|protocol.NonceModeInputLen64), load.Param1)

	assert.ErrorIs(t, c.NonceLoad(ctx, 0x01, fill(32, 0)), protocol.ErrBadParameter)
}

func TestNonceLoadMsgDigBufUnsupported(t *testing.T) {
	exec := NewMockExecutor()
	c := New(exec, WithVariant(protocol.ATECC508A))

	err := c.NonceLoad(context.Background(), protocol.NonceModeTargetMsgDigBuf, fill(32, 0))
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Empty(t, exec.calls)
}

func TestVerifyResult(t *testing.T) {
	ok, err := verifyResult(nil)
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = verifyResult(&protocol.StatusError{StatusCode: protocol.StatusCheckMacVerifyFailed})
	assert.False(t, ok)
	assert.NoError(t, err)

	ok, err = verifyResult(protocol.ErrBadCRC)
	assert.False(t, ok)
	assert.ErrorIs(t, err, protocol.ErrBadCRC)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "message-loaded", StateMessageLoaded.String())
	assert.Equal(t, "command-executed", StateCommandExecuted.String())
	assert.Equal(t, "compared", StateCompared.String())
	assert.Equal(t, "unknown", State(42).String())
}
