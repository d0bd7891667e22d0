package transaction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
)

const (
	// MaxTransactionSize is the upper limit size in bytes that a transaction
	// can reach.
	MaxTransactionSize = 16384
	// MaxArgs is the maximum number of call arguments.
	MaxArgs = 16
	// MaxMethodLen is the maximum length of the called method name.
	MaxMethodLen = 32
	// MaxSignatureLen is the maximum length of a DER-encoded secp256k1
	// signature.
	MaxSignatureLen = 72
)

var (
	// ErrNoSender is returned when a transaction is not signed by anyone.
	ErrNoSender = errors.New("transaction has no sender")
	// ErrInvalidSignature is returned when the transaction signature doesn't
	// match its sender and contents.
	ErrInvalidSignature = errors.New("invalid transaction signature")
	// ErrTxTooBig is returned when a transaction exceeds MaxTransactionSize.
	ErrTxTooBig = errors.New("transaction is too big")
	// ErrEmptyMethod is returned for a transaction calling nothing.
	ErrEmptyMethod = errors.New("method name is empty")
)

// Transaction is a signed contract call recorded in a block.
type Transaction struct {
	// Random number to avoid hash collision.
	Nonce uint32

	// Maximum blockchain height exceeding which the transaction
	// is not valid anymore.
	ValidUntilBlock uint32

	// Sender is the public key of the transaction signer, the caller of the
	// contract method.
	Sender *keys.PublicKey

	// Contract method to call and its arguments.
	Method string
	Args   []smartcontract.Parameter

	// Signature is a DER-encoded ECDSA signature of the transaction hash.
	Signature []byte

	// Hash of the transaction (unsigned part), cached.
	hash   util.Uint256
	hashed bool

	// Size of the serialized transaction, cached.
	size int
}

// New returns a new unsigned transaction calling the given method.
func New(method string, args []smartcontract.Parameter, nonce uint32, validUntil uint32) *Transaction {
	return &Transaction{
		Nonce:           nonce,
		ValidUntilBlock: validUntil,
		Method:          method,
		Args:            args,
	}
}

// Hash returns the hash of the transaction.
func (t *Transaction) Hash() util.Uint256 {
	if !t.hashed {
		t.createHash()
	}
	return t.hash
}

// SenderHash returns the principal of the transaction sender.
func (t *Transaction) SenderHash() util.Uint160 {
	if t.Sender == nil {
		return util.Uint160{}
	}
	return t.Sender.Principal()
}

// Sign signs the transaction with the given key making its owner the sender.
func (t *Transaction) Sign(priv *keys.PrivateKey) {
	t.Sender = priv.PublicKey()
	t.invalidate()
	t.Signature = priv.SignHashable(t)
	t.size = 0
}

// Verify checks the transaction signature and basic validity.
func (t *Transaction) Verify() error {
	if t.Sender == nil {
		return ErrNoSender
	}
	if err := t.isValid(); err != nil {
		return err
	}
	if !t.Sender.VerifyHashable(t.Signature, t) {
		return ErrInvalidSignature
	}
	return nil
}

func (t *Transaction) isValid() error {
	if len(t.Method) == 0 {
		return ErrEmptyMethod
	}
	if len(t.Method) > MaxMethodLen {
		return fmt.Errorf("method name is too long: %d", len(t.Method))
	}
	if len(t.Args) > MaxArgs {
		return fmt.Errorf("too many arguments: %d", len(t.Args))
	}
	if t.Size() > MaxTransactionSize {
		return ErrTxTooBig
	}
	return nil
}

func (t *Transaction) invalidate() {
	t.hashed = false
	t.size = 0
}

// encodeHashableFields encodes the fields that are covered by the signature.
func (t *Transaction) encodeHashableFields(bw *io.BinWriter) {
	bw.WriteU32LE(t.Nonce)
	bw.WriteU32LE(t.ValidUntilBlock)
	bw.WriteVarBytes(t.Sender.Bytes())
	bw.WriteString(t.Method)
	bw.WriteVarUint(uint64(len(t.Args)))
	for i := range t.Args {
		t.Args[i].EncodeBinary(bw)
	}
}

func (t *Transaction) decodeHashableFields(br *io.BinReader) {
	t.Nonce = br.ReadU32LE()
	t.ValidUntilBlock = br.ReadU32LE()
	pub := br.ReadVarBytes(keys.PublicKeyLen)
	if br.Err != nil {
		return
	}
	t.Sender = nil
	if len(pub) != 0 {
		t.Sender, br.Err = keys.NewPublicKeyFromBytes(pub)
		if br.Err != nil {
			return
		}
	}
	t.Method = br.ReadString(MaxMethodLen)
	t.Args = io.ReadArray[smartcontract.Parameter](br, MaxArgs)
}

// createHash creates the hash of the transaction.
func (t *Transaction) createHash() {
	buf := io.NewBufBinWriter()
	t.encodeHashableFields(buf.BinWriter)
	if buf.Err != nil {
		panic(buf.Err)
	}
	t.hash = hash.Sha256(buf.Bytes())
	t.hashed = true
}

// EncodeBinary implements the io.Serializable interface.
func (t *Transaction) EncodeBinary(bw *io.BinWriter) {
	t.encodeHashableFields(bw)
	bw.WriteVarBytes(t.Signature)
}

// DecodeBinary implements the io.Serializable interface.
func (t *Transaction) DecodeBinary(br *io.BinReader) {
	t.decodeHashableFields(br)
	t.Signature = br.ReadVarBytes(MaxSignatureLen)
	if br.Err == nil {
		t.invalidate()
		t.createHash()
	}
}

// Bytes converts the transaction to []byte.
func (t *Transaction) Bytes() []byte {
	buf := io.NewBufBinWriter()
	t.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		return nil
	}
	return buf.Bytes()
}

// Size returns the size of the serialized transaction.
func (t *Transaction) Size() int {
	if t.size == 0 {
		t.size = len(t.Bytes())
	}
	return t.size
}

// NewTransactionFromBytes decodes byte array into *Transaction.
func NewTransactionFromBytes(b []byte) (*Transaction, error) {
	if len(b) > MaxTransactionSize {
		return nil, ErrTxTooBig
	}
	tx := &Transaction{}
	r := io.NewBinReaderFromBuf(b)
	tx.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	if tx.Size() != len(b) {
		return nil, errors.New("additional data after the transaction")
	}
	return tx, nil
}

// transactionJSON is a wrapper for Transaction and
// used for correct marhalling of transaction.Data.
type transactionJSON struct {
	TxID            util.Uint256              `json:"hash"`
	Size            int                       `json:"size"`
	Nonce           uint32                    `json:"nonce"`
	ValidUntilBlock uint32                    `json:"validuntilblock"`
	Sender          *keys.PublicKey           `json:"sender"`
	SenderAddress   string                    `json:"senderaddress,omitempty"`
	Method          string                    `json:"method"`
	Args            []smartcontract.Parameter `json:"args"`
	Signature       []byte                    `json:"signature"`
}

// MarshalJSON implements the json.Marshaler interface.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	tx := transactionJSON{
		TxID:            t.Hash(),
		Size:            t.Size(),
		Nonce:           t.Nonce,
		ValidUntilBlock: t.ValidUntilBlock,
		Sender:          t.Sender,
		Method:          t.Method,
		Args:            t.Args,
		Signature:       t.Signature,
	}
	if t.Sender != nil {
		tx.SenderAddress = t.Sender.Address()
	}
	if tx.Args == nil {
		tx.Args = []smartcontract.Parameter{}
	}
	return json.Marshal(tx)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	tx := new(transactionJSON)
	if err := json.Unmarshal(data, tx); err != nil {
		return err
	}
	t.Nonce = tx.Nonce
	t.ValidUntilBlock = tx.ValidUntilBlock
	t.Sender = tx.Sender
	t.Method = tx.Method
	t.Args = tx.Args
	t.Signature = tx.Signature
	t.invalidate()
	if !tx.TxID.Equals(util.Uint256{}) && !tx.TxID.Equals(t.Hash()) {
		return errors.New("txid doesn't match transaction hash")
	}
	return nil
}
