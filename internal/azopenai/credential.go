package azopenai

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// CognitiveServicesScope is the token scope for Azure OpenAI and Foundry
// model endpoints.
const CognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// NewDeveloperCredential returns the credential the demos authenticate
// with: a signed-in Azure CLI session, falling back to the Azure Developer
// CLI. Environment-variable and managed-identity sources are not part of
// the chain.
func NewDeveloperCredential(tenantID string) (azcore.TokenCredential, error) {
	cli, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
		TenantID: tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Azure CLI credential: %w", err)
	}

	azd, err := azidentity.NewAzureDeveloperCLICredential(&azidentity.AzureDeveloperCLICredentialOptions{
		TenantID: tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Azure Developer CLI credential: %w", err)
	}

	chain, err := azidentity.NewChainedTokenCredential([]azcore.TokenCredential{cli, azd}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating credential chain: %w", err)
	}
	return chain, nil
}
