package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrenew/internal/config"
	"github.com/vvka-141/pgrenew/internal/credentials"
	"github.com/vvka-141/pgrenew/internal/retry"
	"github.com/vvka-141/pgrenew/pkg/pgrenew"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	host     string
	port     int
	username string
	database string
	sslMode  string
	envFile  string

	aws       bool
	awsRegion string

	azure         bool
	azureTenantID string
	azureClientID string
}

// registerConnectionFlags wires the shared connection flags onto cmd.
func registerConnectionFlags(cmd *cobra.Command, flags *connectionFlags) {
	cmd.Flags().StringVarP(&flags.host, "host", "H", "", "Database host (default $PGHOST)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Database port (default $PGPORT or 5432)")
	cmd.Flags().StringVarP(&flags.username, "username", "U", "", "Database user (default $PGUSER)")
	cmd.Flags().StringVarP(&flags.database, "dbname", "d", "", "Database name (default $PGDATABASE)")
	cmd.Flags().StringVar(&flags.sslMode, "sslmode", "", "SSL mode (default $PGSSLMODE)")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "Load environment variables from this file first")
	cmd.Flags().BoolVar(&flags.aws, "aws", false, "Authenticate with AWS RDS IAM tokens")
	cmd.Flags().StringVar(&flags.awsRegion, "aws-region", "", "AWS region for IAM auth (default $AWS_REGION)")
	cmd.Flags().BoolVar(&flags.azure, "azure", false, "Authenticate with Azure Entra ID tokens")
	cmd.Flags().StringVar(&flags.azureTenantID, "azure-tenant-id", "", "Azure tenant ID for service principal auth")
	cmd.Flags().StringVar(&flags.azureClientID, "azure-client-id", "", "Azure client ID for service principal auth")
}

// resolveConnSpec builds the connection spec the renewal layer stores and
// re-dials from, plus the reconnect executor tuned by pgrenew.yaml.
// Precedence: flags > environment > pgrenew.yaml > defaults.
func resolveConnSpec(flags connectionFlags) (pgrenew.ConnSpec, *retry.Executor, error) {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil {
			return pgrenew.ConnSpec{}, nil, fmt.Errorf("failed to load env file %s: %w", flags.envFile, err)
		}
	}

	projectCfg, err := config.Load(".")
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return pgrenew.ConnSpec{}, nil, err
	}
	var fileConn config.ConnectionConfig
	var fileReconnect config.ReconnectConfig
	if projectCfg != nil {
		fileConn = projectCfg.Connection
		fileReconnect = projectCfg.Reconnect
	}

	spec := pgrenew.ConnSpec{
		Host:     firstOf(flags.host, os.Getenv("PGHOST"), fileConn.Host),
		Port:     firstPort(flags.port, os.Getenv("PGPORT"), fileConn.Port),
		Username: firstOf(flags.username, os.Getenv("PGUSER"), fileConn.Username),
		Database: firstOf(flags.database, os.Getenv("PGDATABASE"), fileConn.Database),
		Password: os.Getenv("PGPASSWORD"),
		SSLMode:  firstOf(flags.sslMode, os.Getenv("PGSSLMODE"), fileConn.SSLMode),
		AppName:  "pgrenew",
	}

	creds, err := resolveCredentials(flags, fileConn, &spec)
	if err != nil {
		return pgrenew.ConnSpec{}, nil, err
	}
	spec.Credentials = creds

	if err := spec.Validate(); err != nil {
		return pgrenew.ConnSpec{}, nil, err
	}
	return spec, reconnectExecutor(fileReconnect), nil
}

// reconnectExecutor builds the retry policy renewal uses while re-dialing,
// applying the pgrenew.yaml reconnect tuning over the defaults.
func reconnectExecutor(rc config.ReconnectConfig) *retry.Executor {
	maxAttempts := rc.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = pgrenew.DefaultReconnectMaxAttempts
	}
	return retry.NewExecutor(
		retry.NewTransientClassifier(),
		retry.NewExponentialBackoff(maxAttempts,
			retry.WithInitialDelay(rc.InitialDelayDuration(pgrenew.DefaultReconnectInitialDelay)),
			retry.WithMaxDelay(rc.MaxDelayDuration(pgrenew.DefaultReconnectMaxDelay)),
		),
	)
}

// resolveCredentials picks the credential provider for the spec. Cloud token
// providers are cached so a renewal burst does not hammer the token endpoint.
func resolveCredentials(flags connectionFlags, fileConn config.ConnectionConfig, spec *pgrenew.ConnSpec) (pgrenew.CredentialProvider, error) {
	useAWS := flags.aws || fileConn.AuthMethod == "aws_iam"
	useAzure := flags.azure || fileConn.AuthMethod == "azure_entra_id"

	switch {
	case useAWS && useAzure:
		return nil, fmt.Errorf("cannot combine --aws and --azure: %w", pgrenew.ErrInvalidSpec)

	case useAWS:
		region := firstOf(flags.awsRegion, os.Getenv("AWS_REGION"), fileConn.AWSRegion)
		endpoint := fmt.Sprintf("%s:%d", spec.Host, portOrDefault(spec.Port))
		provider, err := credentials.NewAWSIAMProvider(endpoint, region, spec.Username)
		if err != nil {
			return nil, err
		}
		return credentials.NewCached(provider, pgrenew.CredentialExpiryWarning), nil

	case useAzure:
		tenantID := firstOf(flags.azureTenantID, fileConn.AzureTenantID)
		clientID := firstOf(flags.azureClientID, fileConn.AzureClientID)
		clientSecret := os.Getenv("AZURE_CLIENT_SECRET")

		if tenantID != "" && clientID != "" && clientSecret != "" {
			provider, err := credentials.NewAzureServicePrincipalProvider(tenantID, clientID, clientSecret)
			if err != nil {
				return nil, err
			}
			return credentials.NewCached(provider, pgrenew.CredentialExpiryWarning), nil
		}
		provider, err := credentials.NewAzureDefaultProvider()
		if err != nil {
			return nil, err
		}
		return credentials.NewCached(provider, pgrenew.CredentialExpiryWarning), nil

	default:
		// Static passwords still go through a provider so renewal has a
		// single code path for resolving credentials.
		if spec.Password != "" {
			return credentials.NewStatic(spec.Password), nil
		}
		return nil, nil
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPort(flag int, env string, file int) int {
	if flag != 0 {
		return flag
	}
	if env != "" {
		if p, err := strconv.Atoi(env); err == nil {
			return p
		}
	}
	return file
}

func portOrDefault(port int) int {
	if port == 0 {
		return pgrenew.DefaultPort
	}
	return port
}
