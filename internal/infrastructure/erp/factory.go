package erp

import (
	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// NewProvider builds the vendor client for an ERP platform from decrypted
// credential fields. Unknown platforms fail with ConfigurationError.
func NewProvider(platform string, fields map[string]string, doer ports.Doer, logger zerolog.Logger) (ports.ERPProvider, error) {
	switch platform {
	case PlatformOmie:
		return NewOmieClient(fields["appKey"], fields["appSecret"], fields["baseUrl"], doer, logger)
	case PlatformBling:
		return NewBlingClient(fields["accessToken"], fields["baseUrl"], doer, logger)
	case PlatformTiny:
		return NewTinyClient(fields["token"], fields["baseUrl"], doer, logger)
	default:
		return nil, &domain.ConfigurationError{Platform: platform, Missing: []string{"platform"}}
	}
}
