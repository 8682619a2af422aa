package crm

import (
	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// NewProvider builds the vendor client for a CRM platform from decrypted
// credential fields. Unknown platforms fail with ConfigurationError.
func NewProvider(platform string, fields map[string]string, doer ports.Doer, logger zerolog.Logger) (ports.CRMProvider, error) {
	switch platform {
	case PlatformRDStation:
		return NewRDStationClient(fields["token"], fields["baseUrl"], doer, logger)
	case PlatformPipedrive:
		return NewPipedriveClient(fields["apiToken"], fields["companyDomain"], doer, logger)
	case PlatformHubSpot:
		return NewHubSpotClient(fields["accessToken"], fields["baseUrl"], doer, logger)
	default:
		return nil, &domain.ConfigurationError{Platform: platform, Missing: []string{"platform"}}
	}
}
