package crypto

import (
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"github.com/microchipgnu/v4n1ty/pkg/types"
)

const (
	// PrivateKeyLen is the secp256k1 scalar size in bytes.
	PrivateKeyLen = 32
	// AddressLen is the Ethereum address size in bytes.
	AddressLen = 20
	// AddressHexLen is the address body length in hex characters.
	AddressHexLen = 2 * AddressLen
)

// Keccak256 calculates the keccak256 hash of the input bytes.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// ChecksumAddress converts a 20-byte address to its EIP-55 checksummed
// string form. Each hex letter is uppercased when the corresponding
// nibble of keccak256(lowercase hex) is >= 8.
func ChecksumAddress(addr20 []byte) string {
	if len(addr20) != AddressLen {
		panic(errors.New("address must be 20 bytes"))
	}
	hexLower := hex.EncodeToString(addr20)
	sum := Keccak256([]byte(hexLower))
	buf := make([]byte, 2+AddressHexLen)
	buf[0], buf[1] = '0', 'x'
	for i := 0; i < AddressHexLen; i++ {
		c := hexLower[i]
		if c >= 'a' {
			nibble := (sum[i/2] >> uint(4*(1-i%2))) & 0xf
			if nibble >= 8 {
				c -= 'a' - 'A'
			}
		}
		buf[2+i] = c
	}
	return string(buf)
}

// Source produces fresh random keypairs with their derived addresses.
// It keeps a reusable hasher and scratch buffers so the hot loop does
// not allocate; a Source must therefore only be used by one goroutine.
// Give each worker its own instance.
type Source struct {
	hasher  hash.Hash
	keyBuf  [PrivateKeyLen]byte
	pubBuf  [64]byte
	hashBuf [32]byte
}

// NewSource creates a keypair source backed by crypto/rand.
func NewSource() *Source {
	return &Source{hasher: sha3.NewLegacyKeccak256()}
}

// Next draws a fresh random private key and derives its address.
// Scalars outside the curve order (vanishingly rare) are redrawn.
func (s *Source) Next() (types.Candidate, error) {
	for {
		if _, err := crand.Read(s.keyBuf[:]); err != nil {
			return types.Candidate{}, fmt.Errorf("read key randomness: %w", err)
		}
		address, ok := s.derive(&s.keyBuf)
		if !ok {
			continue
		}
		return types.Candidate{PrivateKey: s.keyBuf, Address: address}, nil
	}
}

// derive computes the EIP-55 address for the key without heap
// allocations on the EC path: decred's ScalarBaseMultNonConst works on
// stack-allocated field values and the keccak state is reused. Returns
// ok=false when the key is zero or not below the curve order.
func (s *Source) derive(key *[PrivateKeyLen]byte) (string, bool) {
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetBytes(key); overflow != 0 {
		return "", false
	}
	if scalar.IsZero() {
		return "", false
	}

	var point secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&scalar, &point)
	point.ToAffine()
	point.X.Normalize()
	point.Y.Normalize()
	point.X.PutBytesUnchecked(s.pubBuf[0:32])
	point.Y.PutBytesUnchecked(s.pubBuf[32:64])

	// Address is the last 20 bytes of keccak256(X || Y).
	s.hasher.Reset()
	_, _ = s.hasher.Write(s.pubBuf[:])
	sum := s.hasher.Sum(s.hashBuf[:0])
	return ChecksumAddress(sum[12:32]), true
}

// DeriveAddress is the reference derivation path through go-ethereum.
// It allocates, so it is kept off the search loop; the CLI uses it to
// restate a found key's address before printing, and tests use it as
// the oracle for the fast path.
func DeriveAddress(privateKey [PrivateKeyLen]byte) (string, error) {
	pk, err := ethcrypto.ToECDSA(privateKey[:])
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(pk.PublicKey).Hex(), nil
}
