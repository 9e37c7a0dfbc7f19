package ledger

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the number of bytes in an account address.
const AddressLength = 20

// Address identifies an account (external or contract) on the ledger.
type Address [AddressLength]byte

// ParseAddress decodes a 0x-prefixed, 40 hex digit address. Case is ignored.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		return a, fmt.Errorf("%w: missing 0x prefix", ErrInvalidAddress)
	}
	raw = raw[2:]
	if len(raw) != AddressLength*2 {
		return a, fmt.Errorf("%w: expected %d hex digits, got %d", ErrInvalidAddress, AddressLength*2, len(raw))
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants; it panics on malformed input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// GenerateAddress returns a random address.
func GenerateAddress() (Address, error) {
	var a Address
	if _, err := rand.Read(a[:]); err != nil {
		return a, fmt.Errorf("generate address: %w", err)
	}
	return a, nil
}

// CreateAddress derives the address of a contract deployed by deployer with
// the given nonce: the last 20 bytes of keccak256(deployer || nonce).
func CreateAddress(deployer Address, nonce uint64) Address {
	var buf [AddressLength + 8]byte
	copy(buf[:], deployer[:])
	binary.BigEndian.PutUint64(buf[AddressLength:], nonce)
	sum := keccak256(buf[:])
	var a Address
	copy(a[:], sum[len(sum)-AddressLength:])
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Hex renders the address with the EIP-55 mixed-case checksum.
func (a Address) Hex() string {
	lower := []byte(hex.EncodeToString(a[:]))
	hash := keccak256(lower)
	for i, c := range lower {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			lower[i] = c - 32
		}
	}
	return "0x" + string(lower)
}

// Key is the lower-case form used as a storage key.
func (a Address) Key() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
