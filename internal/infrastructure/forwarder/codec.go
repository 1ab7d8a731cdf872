package forwarder

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	solsha3 "github.com/miguelmota/go-solidity-sha3"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// Deadline travels as uint48 on the wire; larger values are rejected,
// never truncated.
const maxUint48 = uint64(1)<<48 - 1

const forwarderABIJSON = `[
	{"type":"function","name":"pay","inputs":[
		{"name":"paymentHash","type":"bytes32"},
		{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"execute","inputs":[
		{"name":"request","type":"tuple","components":[
			{"name":"from","type":"address"},
			{"name":"to","type":"address"},
			{"name":"value","type":"uint256"},
			{"name":"gas","type":"uint256"},
			{"name":"nonce","type":"uint256"},
			{"name":"deadline","type":"uint48"},
			{"name":"data","type":"bytes"},
			{"name":"signature","type":"bytes"}]}],"outputs":[]},
	{"type":"function","name":"getNonce","inputs":[
		{"name":"from","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var forwarderABI = mustParseABI(forwarderABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("forwarder: bad ABI: %v", err))
	}
	return parsed
}

// Codec validates forward requests and encodes/decodes the calldata of
// the single authorized "pay" call.
type Codec struct {
	forwarder common.Address
	chainID   *big.Int
}

func NewCodec(forwarderAddress string, chainID int64) *Codec {
	return &Codec{
		forwarder: common.HexToAddress(forwarderAddress),
		chainID:   big.NewInt(chainID),
	}
}

// Validate checks the request shape: well-formed addresses, non-empty
// even-length data and signature, a future deadline representable as
// uint48, and a signature recovering to the sender address.
func (c *Codec) Validate(req *domain.ForwardRequest) error {
	if !common.IsHexAddress(req.From) {
		return fmt.Errorf("%w: malformed from address %q", domain.ErrValidation, req.From)
	}
	if !common.IsHexAddress(req.To) {
		return fmt.Errorf("%w: malformed to address %q", domain.ErrValidation, req.To)
	}
	if req.Value == nil || req.Gas == nil || req.Nonce == nil {
		return fmt.Errorf("%w: value, gas and nonce are required", domain.ErrValidation)
	}
	if _, err := decodeHexField(req.Data); err != nil {
		return fmt.Errorf("%w: data: %v", domain.ErrValidation, err)
	}
	if _, err := decodeHexField(req.Signature); err != nil {
		return fmt.Errorf("%w: signature: %v", domain.ErrValidation, err)
	}
	if req.Deadline > maxUint48 {
		return domain.ErrDeadlineOverflow
	}
	if req.Deadline <= uint64(time.Now().Unix()) {
		return domain.ErrDeadlineExpired
	}
	return c.verifySignature(req)
}

func decodeHexField(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return nil, fmt.Errorf("empty hex string")
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Digest computes the hash the signer commits to. Every request field
// is bound, so substituting nonce or deadline invalidates the signature.
func (c *Codec) Digest(req *domain.ForwardRequest) []byte {
	data, _ := hexutil.Decode(req.Data)
	return solsha3.SoliditySHA3(
		[]string{"address", "uint256", "address", "address", "uint256", "uint256", "uint256", "uint256", "bytes32"},
		[]interface{}{
			c.forwarder.Hex(),
			c.chainID,
			req.From,
			req.To,
			req.Value,
			req.Gas,
			req.Nonce,
			new(big.Int).SetUint64(req.Deadline),
			crypto.Keccak256(data),
		},
	)
}

func (c *Codec) verifySignature(req *domain.ForwardRequest) error {
	sig, err := hexutil.Decode(req.Signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: signature must be 65 bytes", domain.ErrValidation)
	}
	// Normalize the recovery id: wallets emit v as 27/28.
	recovered := make([]byte, crypto.SignatureLength)
	copy(recovered, sig)
	if recovered[64] >= 27 {
		recovered[64] -= 27
	}
	pub, err := crypto.SigToPub(c.Digest(req), recovered)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadSignature, err)
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(req.From) {
		return domain.ErrBadSignature
	}
	return nil
}

// DecodeAuthorizedCall extracts the payment hash and token amount from
// pay(bytes32,uint256) calldata. Any other selector is rejected, not
// passed through.
func (c *Codec) DecodeAuthorizedCall(data string) (string, *big.Int, error) {
	b, err := decodeHexField(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: data: %v", domain.ErrValidation, err)
	}
	method := forwarderABI.Methods["pay"]
	if len(b) < 4 || !bytes.Equal(b[:4], method.ID) {
		return "", nil, domain.ErrUnexpectedSelector
	}
	args, err := method.Inputs.Unpack(b[4:])
	if err != nil {
		return "", nil, fmt.Errorf("%w: decode pay calldata: %v", domain.ErrValidation, err)
	}
	hash := args[0].([32]byte)
	amount := args[1].(*big.Int)
	return hexutil.Encode(hash[:]), amount, nil
}

// PayCalldata builds pay(bytes32,uint256) calldata for a payment hash
// and amount. Used by signers and tests constructing forward requests.
func PayCalldata(paymentHash string, amount *big.Int) (string, error) {
	var h [32]byte
	copy(h[:], common.HexToHash(paymentHash).Bytes())
	b, err := forwarderABI.Pack("pay", h, amount)
	if err != nil {
		return "", fmt.Errorf("pack pay calldata: %w", err)
	}
	return hexutil.Encode(b), nil
}

type executeRequest struct {
	From      common.Address
	To        common.Address
	Value     *big.Int
	Gas       *big.Int
	Nonce     *big.Int
	Deadline  *big.Int
	Data      []byte
	Signature []byte
}

// ExecuteCalldata packs the forwarder execute(request) call carrying
// exactly the fields the signer committed to.
func (c *Codec) ExecuteCalldata(req *domain.ForwardRequest) ([]byte, error) {
	data, err := decodeHexField(req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", domain.ErrValidation, err)
	}
	sig, err := decodeHexField(req.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", domain.ErrValidation, err)
	}
	packed, err := forwarderABI.Pack("execute", executeRequest{
		From:      common.HexToAddress(req.From),
		To:        common.HexToAddress(req.To),
		Value:     req.Value,
		Gas:       req.Gas,
		Nonce:     req.Nonce,
		Deadline:  new(big.Int).SetUint64(req.Deadline),
		Data:      data,
		Signature: sig,
	})
	if err != nil {
		return nil, fmt.Errorf("pack execute calldata: %w", err)
	}
	return packed, nil
}

// NonceCalldata packs getNonce(address) for the trusted forwarder.
func NonceCalldata(address string) ([]byte, error) {
	return forwarderABI.Pack("getNonce", common.HexToAddress(address))
}

// UnpackNonce decodes the getNonce return value.
func UnpackNonce(out []byte) (*big.Int, error) {
	values, err := forwarderABI.Unpack("getNonce", out)
	if err != nil {
		return nil, fmt.Errorf("unpack nonce: %w", err)
	}
	return values[0].(*big.Int), nil
}

// ForwarderAddress returns the trusted forwarder this codec binds to.
func (c *Codec) ForwarderAddress() common.Address {
	return c.forwarder
}
