package entity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
)

// Literal is the JSON object form of an instance as sent on the wire.
type Literal map[string]any

// Mapper converts instances to and from literals, encrypting the values of
// encrypted types.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// EncryptAndMapToLiteral converts instance into its literal. For encrypted
// types each value named in model.EncryptedValues is replaced by the base64
// ciphertext of its JSON encoding; a nil sessionKey is then an error.
// Unencrypted types ignore sessionKey.
func (m *Mapper) EncryptAndMapToLiteral(model TypeModel, instance any, sessionKey []byte) (Literal, error) {
	raw, err := json.Marshal(instance)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", model, err)
	}

	var literal Literal
	if err := json.Unmarshal(raw, &literal); err != nil {
		return nil, fmt.Errorf("map %s to literal: %w", model, err)
	}

	if !model.Encrypted {
		return literal, nil
	}
	if sessionKey == nil {
		return nil, fmt.Errorf("map %s: %w", model, common.ErrSessionKeyUnavailable)
	}

	for _, name := range model.EncryptedValues {
		value, ok := literal[name]
		if !ok {
			continue
		}
		plain, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		enc, err := cryptox.EncryptBytes(sessionKey, plain)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s.%s: %w", model, name, err)
		}
		literal[name] = base64.StdEncoding.EncodeToString(enc)
	}
	return literal, nil
}

// DecryptAndMapToInstance reverses EncryptAndMapToLiteral into out.
func (m *Mapper) DecryptAndMapToInstance(model TypeModel, literal Literal, sessionKey []byte, out any) error {
	if model.Encrypted {
		if sessionKey == nil {
			return fmt.Errorf("map %s: %w", model, common.ErrSessionKeyUnavailable)
		}

		decrypted := make(Literal, len(literal))
		for k, v := range literal {
			decrypted[k] = v
		}
		for _, name := range model.EncryptedValues {
			value, ok := literal[name].(string)
			if !ok {
				continue
			}
			enc, err := base64.StdEncoding.DecodeString(value)
			if err != nil {
				return fmt.Errorf("%w: %s.%s is not base64", common.ErrDecryption, model, name)
			}
			plain, err := cryptox.DecryptBytes(sessionKey, enc)
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(plain, &v); err != nil {
				return fmt.Errorf("%w: %s.%s: %v", common.ErrDecryption, model, name, err)
			}
			decrypted[name] = v
		}
		literal = decrypted
	}

	raw, err := json.Marshal(literal)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
