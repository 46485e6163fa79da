package rsa

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/nao1215/pngcipher/internal/model"
)

// textbookKey is the classic p=61, q=53 example.
func textbookKey() *KeyPair {
	return &KeyPair{N: big.NewInt(3233), E: big.NewInt(17), D: big.NewInt(2753), P: big.NewInt(61), Q: big.NewInt(53)}
}

func testKey(t *testing.T, bits int) *KeyPair {
	t.Helper()
	key, err := GenerateKey(context.Background(), BlockBound(bits/8-1), bits)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	return key
}

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}

func TestEncryptECB_Textbook(t *testing.T) {
	t.Parallel()

	key := textbookKey()
	c := NewCipher(WithWorkers(1))
	out, err := c.EncryptECB(context.Background(), []byte{65}, key.Public())
	if err != nil {
		t.Fatalf("EncryptECB() error = %v", err)
	}
	if !bytes.Equal(out, []byte{0x0A, 0xE6}) { // 2790
		t.Errorf("EncryptECB() = % x, want 0a e6", out)
	}
	plain, err := c.DecryptECB(context.Background(), out, key)
	if err != nil {
		t.Fatalf("DecryptECB() error = %v", err)
	}
	if !bytes.Equal(plain, []byte{65}) {
		t.Errorf("DecryptECB() = %v", plain)
	}
}

func TestECB_RoundTrip(t *testing.T) {
	t.Parallel()

	key := testKey(t, 128)
	step := key.Public().BlockSize()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "single block", data: sequence(step)},
		{name: "all ones block", data: bytes.Repeat([]byte{0xFF}, step)},
		{name: "all zeros", data: make([]byte, 3*step)},
		{name: "many blocks", data: sequence(257 * step)},
		{name: "empty", data: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewCipher(WithWorkers(4))
			ct, err := c.EncryptECB(context.Background(), tt.data, key.Public())
			if err != nil {
				t.Fatalf("EncryptECB() error = %v", err)
			}
			if len(ct) != len(tt.data)/step*key.Public().ModulusBytes() {
				t.Errorf("ciphertext length %d", len(ct))
			}
			pt, err := c.DecryptECB(context.Background(), ct, key)
			if err != nil {
				t.Fatalf("DecryptECB() error = %v", err)
			}
			if !bytes.Equal(pt, tt.data) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestECB_ShortFinalBlockIsPadded(t *testing.T) {
	t.Parallel()

	key := testKey(t, 64)
	step := key.Public().BlockSize()
	data := sequence(step + 2)

	c := NewCipher()
	ct, err := c.EncryptECB(context.Background(), data, key.Public())
	if err != nil {
		t.Fatalf("EncryptECB() error = %v", err)
	}
	if len(ct) != 2*key.Public().ModulusBytes() {
		t.Fatalf("ciphertext length %d, want two blocks", len(ct))
	}
	pt, err := c.DecryptECB(context.Background(), ct, key)
	if err != nil {
		t.Fatalf("DecryptECB() error = %v", err)
	}
	want := append(bytes.Clone(data), make([]byte, step-2)...)
	if !bytes.Equal(pt, want) {
		t.Errorf("DecryptECB() = %v, want %v", pt, want)
	}
}

func TestECB_IdenticalBlocksRepeat(t *testing.T) {
	t.Parallel()

	key := testKey(t, 64)
	step := key.Public().BlockSize()
	width := key.Public().ModulusBytes()

	ct, err := NewCipher().EncryptECB(context.Background(), bytes.Repeat([]byte{0x42}, 2*step), key.Public())
	if err != nil {
		t.Fatalf("EncryptECB() error = %v", err)
	}
	if !bytes.Equal(ct[:width], ct[width:]) {
		t.Error("ECB should map equal blocks to equal ciphertext")
	}
}

func TestDecryptECB_Errors(t *testing.T) {
	t.Parallel()

	key := testKey(t, 64)
	width := key.Public().ModulusBytes()

	t.Run("block above modulus", func(t *testing.T) {
		t.Parallel()
		data := append(make([]byte, width), bytes.Repeat([]byte{0xFF}, width)...)
		_, err := NewCipher().DecryptECB(context.Background(), data, key)
		var rerr *RangeError
		if !errors.As(err, &rerr) {
			t.Fatalf("expected *RangeError, got %v", err)
		}
		if rerr.Block != 1 {
			t.Errorf("Block = %d, want 1", rerr.Block)
		}
		if !errors.Is(err, ErrMessageTooLarge) {
			t.Error("expected errors.Is(err, ErrMessageTooLarge)")
		}
	})

	t.Run("trailing bytes are ignored with a warning", func(t *testing.T) {
		t.Parallel()
		rec := model.NewRecorder()
		c := NewCipher(WithLogFunc(rec.Log))
		ct, err := c.EncryptECB(context.Background(), sequence(key.Public().BlockSize()), key.Public())
		if err != nil {
			t.Fatalf("EncryptECB() error = %v", err)
		}
		pt, err := c.DecryptECB(context.Background(), append(ct, 1, 2, 3), key)
		if err != nil {
			t.Fatalf("DecryptECB() error = %v", err)
		}
		if len(pt) != key.Public().BlockSize() {
			t.Errorf("plaintext length %d", len(pt))
		}
		if rec.Count(model.SeverityWarning) != 1 {
			t.Errorf("expected one warning, got %+v", rec.Entries())
		}
	})

	t.Run("nil key", func(t *testing.T) {
		t.Parallel()
		if _, err := NewCipher().DecryptECB(context.Background(), nil, nil); !errors.Is(err, ErrNilKey) {
			t.Errorf("expected ErrNilKey, got %v", err)
		}
		if _, err := NewCipher().EncryptECB(context.Background(), nil, PublicKey{}); !errors.Is(err, ErrNilKey) {
			t.Errorf("expected ErrNilKey, got %v", err)
		}
	})

	t.Run("tiny modulus", func(t *testing.T) {
		t.Parallel()
		tiny := PublicKey{N: big.NewInt(187), E: big.NewInt(7)}
		if _, err := NewCipher().EncryptECB(context.Background(), []byte{1}, tiny); !errors.Is(err, ErrKeyTooSmall) {
			t.Errorf("expected ErrKeyTooSmall, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewCipher().EncryptECB(ctx, sequence(100), key.Public()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCBC_RoundTrip(t *testing.T) {
	t.Parallel()

	key := testKey(t, 128)
	step := key.Public().BlockSize()
	width := key.Public().ModulusBytes()

	for _, n := range []int{0, 1, 5, 64} {
		data := bytes.Repeat([]byte{0x42}, n*step)
		c := NewCipher()
		ct, err := c.EncryptCBC(context.Background(), data, key.Public())
		if err != nil {
			t.Fatalf("EncryptCBC() error = %v", err)
		}
		if len(ct) != (n+1)*width {
			t.Errorf("%d blocks: ciphertext length %d, want %d", n, len(ct), (n+1)*width)
		}
		if n >= 2 && bytes.Equal(ct[width:2*width], ct[2*width:3*width]) {
			t.Error("CBC produced equal ciphertext for equal plaintext blocks")
		}
		pt, err := c.DecryptCBC(context.Background(), ct, key)
		if err != nil {
			t.Fatalf("DecryptCBC() error = %v", err)
		}
		if !bytes.Equal(pt, data) {
			t.Errorf("%d blocks: round trip mismatch", n)
		}
	}
}

func TestCBC_Errors(t *testing.T) {
	t.Parallel()

	key := testKey(t, 64)

	if _, err := NewCipher().DecryptCBC(context.Background(), []byte{1, 2}, key); !errors.Is(err, ErrMissingIV) {
		t.Errorf("expected ErrMissingIV, got %v", err)
	}

	other := testKey(t, 64)
	ct, err := NewCipher().EncryptCBC(context.Background(), sequence(40*key.Public().BlockSize()), key.Public())
	if err != nil {
		t.Fatalf("EncryptCBC() error = %v", err)
	}
	// With a different key each block decrypts to a value spread over the full
	// modulus range, so one of forty blocks lands above the block bound.
	_, err = NewCipher().DecryptCBC(context.Background(), ct, other)
	if err == nil {
		t.Skip("wrong key happened to stay within the block bound")
	}
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestCipher_ModeDispatch(t *testing.T) {
	t.Parallel()

	key := testKey(t, 64)
	data := sequence(3 * key.Public().BlockSize())
	for _, mode := range []Mode{ModeECB, ModeCBC} {
		c := NewCipher()
		ct, err := c.Encrypt(context.Background(), mode, data, key.Public())
		if err != nil {
			t.Fatalf("%s: Encrypt() error = %v", mode, err)
		}
		pt, err := c.Decrypt(context.Background(), mode, ct, key)
		if err != nil {
			t.Fatalf("%s: Decrypt() error = %v", mode, err)
		}
		if !bytes.Equal(pt, data) {
			t.Errorf("%s: round trip mismatch", mode)
		}
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()

	key := testKey(t, 64)
	step := key.Public().BlockSize()

	for _, workers := range []int{1, 8} {
		var mu sync.Mutex
		values := make([]float64, 0)
		c := NewCipher(WithWorkers(workers), WithProgress(func(f float64) {
			mu.Lock()
			defer mu.Unlock()
			values = append(values, f)
		}))

		if _, err := c.EncryptECB(context.Background(), sequence(1000*step), key.Public()); err != nil {
			t.Fatalf("EncryptECB() error = %v", err)
		}

		mu.Lock()
		if len(values) == 0 || values[len(values)-1] != 1 {
			t.Fatalf("workers=%d: final progress %v, want 1", workers, values)
		}
		if len(values) > 201 {
			t.Errorf("workers=%d: %d deliveries, throttle not applied", workers, len(values))
		}
		for i := 1; i < len(values); i++ {
			if values[i] < values[i-1] {
				t.Fatalf("workers=%d: progress decreased at %d: %v -> %v", workers, i, values[i-1], values[i])
			}
			if values[i] < 1 && values[i]-values[i-1] < DefaultProgressThreshold {
				t.Errorf("workers=%d: step %v below threshold", workers, values[i]-values[i-1])
			}
		}
		mu.Unlock()
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	key := textbookKey()
	fp := key.Fingerprint()
	if len(fp) != 64 {
		t.Errorf("fingerprint length %d, want 64", len(fp))
	}
	if fp != key.Public().Fingerprint() {
		t.Error("fingerprint differs between pair and public half")
	}
	other := &KeyPair{N: big.NewInt(3233), E: big.NewInt(7), D: big.NewInt(1783)}
	if other.Fingerprint() == fp {
		t.Error("different exponents must give different fingerprints")
	}
}
