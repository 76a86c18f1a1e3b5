package platform

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

// ClientPrincipal is the platform-supplied summary of the caller's
// authenticated identity and coarse role grants.
type ClientPrincipal struct {
	IdentityProvider string           `mapstructure:"identityProvider"`
	UserID           string           `mapstructure:"userId"`
	UserDetails      string           `mapstructure:"userDetails"`
	UserRoles        []string         `mapstructure:"userRoles"`
	Claims           []core.RoleClaim `mapstructure:"claims"`
}

// ParseClientPrincipal decodes the base64 JSON envelope from the
// client-principal header. The payload shape drifts between execution
// contexts (claims present or not, field casing), so the JSON is first read
// into a loose map and then decoded weakly into the typed structure.
func ParseClientPrincipal(encoded string) (*ClientPrincipal, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// some platform variants emit unpadded base64
		raw, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decoding principal envelope: %w", err)
		}
	}

	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("parsing principal envelope: %w", err)
	}

	var cp ClientPrincipal
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cp,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building principal decoder: %w", err)
	}
	if err := dec.Decode(loose); err != nil {
		return nil, fmt.Errorf("decoding principal envelope: %w", err)
	}
	return &cp, nil
}
