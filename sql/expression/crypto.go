// Copyright 2024 The flowql Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expression

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/lukoou3/flowql/sql"
)

// AesEncrypt implements aes_encrypt(plaintext, key): AES-256 in CFB mode,
// with key zero-padded or truncated to 32 bytes by normalizeAesKey; output
// is a random 16-byte IV followed by the ciphertext, as raw Binary. Uses
// crypto/aes directly: no example repo in the
// retrieval pack wires a third-party AES implementation, and the stdlib
// primitive is the idiomatic choice for block ciphers in Go.
type AesEncrypt struct {
	Plaintext, Key sql.Expression
}

func NewAesEncrypt(plaintext, key sql.Expression) *AesEncrypt {
	return &AesEncrypt{Plaintext: plaintext, Key: key}
}

func (a *AesEncrypt) Resolved() bool             { return a.Plaintext.Resolved() && a.Key.Resolved() }
func (a *AesEncrypt) Type() sql.Type             { return sql.Binary }
func (a *AesEncrypt) Nullable() bool             { return true }
func (a *AesEncrypt) String() string             { return fmt.Sprintf("aes_encrypt(%s, %s)", a.Plaintext, a.Key) }
func (a *AesEncrypt) Children() []sql.Expression { return []sql.Expression{a.Plaintext, a.Key} }
func (a *AesEncrypt) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: AesEncrypt takes exactly 2 children, got %d", len(children))
	}
	return &AesEncrypt{Plaintext: children[0], Key: children[1]}, nil
}
func (a *AesEncrypt) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	pv, err := a.Plaintext.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	kv, err := a.Key.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if pv.IsNull() || kv.IsNull() {
		return sql.NullValue(), nil
	}
	block, err := aes.NewCipher(normalizeAesKey(kv.String()))
	if err != nil {
		return sql.Value{}, sql.ErrEvaluation.Wrap(err, "aes_encrypt key")
	}
	plain := []byte(pv.String())
	out := make([]byte, aes.BlockSize+len(plain))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return sql.Value{}, sql.ErrEvaluation.Wrap(err, "aes_encrypt iv")
	}
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(out[aes.BlockSize:], plain)
	return sql.BinaryValue(out), nil
}

// AesDecrypt implements aes_decrypt(ciphertext, key): the inverse of
// AesEncrypt, returning Null when the input is shorter than one AES block.
// A wrong key is not detected: it yields garbled text, not Null.
type AesDecrypt struct {
	Ciphertext, Key sql.Expression
}

func NewAesDecrypt(ciphertext, key sql.Expression) *AesDecrypt {
	return &AesDecrypt{Ciphertext: ciphertext, Key: key}
}

func (a *AesDecrypt) Resolved() bool { return a.Ciphertext.Resolved() && a.Key.Resolved() }
func (a *AesDecrypt) Type() sql.Type { return sql.String }
func (a *AesDecrypt) Nullable() bool { return true }
func (a *AesDecrypt) String() string {
	return fmt.Sprintf("aes_decrypt(%s, %s)", a.Ciphertext, a.Key)
}
func (a *AesDecrypt) Children() []sql.Expression { return []sql.Expression{a.Ciphertext, a.Key} }
func (a *AesDecrypt) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: AesDecrypt takes exactly 2 children, got %d", len(children))
	}
	return &AesDecrypt{Ciphertext: children[0], Key: children[1]}, nil
}
func (a *AesDecrypt) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	cv, err := a.Ciphertext.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	kv, err := a.Key.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if cv.IsNull() || kv.IsNull() {
		return sql.NullValue(), nil
	}
	data := cv.Binary()
	if len(data) < aes.BlockSize {
		return sql.NullValue(), nil
	}
	block, err := aes.NewCipher(normalizeAesKey(kv.String()))
	if err != nil {
		return sql.NullValue(), nil
	}
	iv, ciphertext := data[:aes.BlockSize], data[aes.BlockSize:]
	plain := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plain, ciphertext)
	return sql.StringValue(string(plain)), nil
}

// normalizeAesKey pads/truncates key to 32 bytes (AES-256) so that any
// caller-supplied key string yields a valid cipher.Block.
func normalizeAesKey(key string) []byte {
	out := make([]byte, 32)
	copy(out, key)
	return out
}
