package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"net/http"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	vault "github.com/hashicorp/vault/api"
	"github.com/richxcame/rider-client/pkg/config"
	"google.golang.org/api/option"
)

// backend loads one secret payload from a secret store.
type backend interface {
	Kind() ProviderType
	Load(ctx context.Context, ref Reference) (Secret, error)
	Close() error
}

// payloadFields accepts a flat JSON object, or treats the whole payload as "value".
func payloadFields(data []byte) map[string]string {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return map[string]string{"value": strings.TrimSpace(string(data))}
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// ─── HashiCorp Vault ─────────────────────────────────────────────────────────

type vaultBackend struct {
	client *vault.Client
	mount  string
}

func newVaultBackend(cfg config.SecretsConfig) (backend, error) {
	if cfg.VaultAddress == "" || cfg.VaultToken == "" {
		return nil, fmt.Errorf("secrets: vault provider requires address and token")
	}
	vc := vault.DefaultConfig()
	vc.Address = cfg.VaultAddress
	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to create vault client: %w", err)
	}
	client.SetToken(cfg.VaultToken)

	mount := strings.Trim(cfg.VaultMount, "/")
	if mount == "" {
		mount = "secret"
	}
	return &vaultBackend{client: client, mount: mount}, nil
}

func (v *vaultBackend) Kind() ProviderType { return ProviderVault }

func (v *vaultBackend) Close() error { return nil }

// Load reads a KV v2 secret. Mounts that are still KV v1 are read through the
// logical API, which has no versions.
func (v *vaultBackend) Load(ctx context.Context, ref Reference) (Secret, error) {
	mount := v.mount
	if ref.Mount != "" {
		mount = ref.Mount
	}
	path := strings.TrimPrefix(ref.Path, "data/")

	var (
		kv  *vault.KVSecret
		err error
	)
	if ref.Version != "" {
		n, convErr := strconv.Atoi(ref.Version)
		if convErr != nil {
			return Secret{}, fmt.Errorf("secrets: vault version %q is not a number: %w", ref.Version, convErr)
		}
		kv, err = v.client.KVv2(mount).GetVersion(ctx, path, n)
	} else {
		kv, err = v.client.KVv2(mount).Get(ctx, path)
	}
	if err == nil {
		s := Secret{Data: stringify(kv.Data)}
		if kv.VersionMetadata != nil {
			s.Version = strconv.Itoa(kv.VersionMetadata.Version)
		}
		return s, nil
	}

	var respErr *vault.ResponseError
	if !errors.As(err, &respErr) || respErr.StatusCode != http.StatusNotFound || ref.Version != "" {
		return Secret{}, fmt.Errorf("secrets: vault read of %s failed: %w", ref.Path, err)
	}
	legacy, lerr := v.client.Logical().ReadWithContext(ctx, mount+"/"+path)
	if lerr != nil {
		return Secret{}, fmt.Errorf("secrets: vault read of %s failed: %w", ref.Path, lerr)
	}
	if legacy == nil || legacy.Data == nil {
		return Secret{}, fmt.Errorf("secrets: vault path %s not found", ref.Path)
	}
	return Secret{Data: stringify(legacy.Data)}, nil
}

func stringify(data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// ─── AWS Secrets Manager ─────────────────────────────────────────────────────

type awsBackend struct {
	client *secretsmanager.Client
}

func newAWSBackend(ctx context.Context, cfg config.SecretsConfig) (backend, error) {
	if cfg.AWSRegion == "" {
		return nil, fmt.Errorf("secrets: aws provider requires region")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to load aws config: %w", err)
	}
	return &awsBackend{client: secretsmanager.NewFromConfig(awsCfg)}, nil
}

func (a *awsBackend) Kind() ProviderType { return ProviderAWS }

func (a *awsBackend) Close() error { return nil }

func (a *awsBackend) Load(ctx context.Context, ref Reference) (Secret, error) {
	in := &secretsmanager.GetSecretValueInput{SecretId: aws.String(ref.Path)}
	switch {
	case ref.Version == "":
	case strings.HasPrefix(ref.Version, "AWS"):
		// staging labels such as AWSCURRENT and AWSPREVIOUS
		in.VersionStage = aws.String(ref.Version)
	default:
		in.VersionId = aws.String(ref.Version)
	}

	out, err := a.client.GetSecretValue(ctx, in)
	if err != nil {
		return Secret{}, fmt.Errorf("secrets: aws read of %s failed: %w", ref.Path, err)
	}

	s := Secret{Version: aws.ToString(out.VersionId)}
	switch {
	case out.SecretString != nil:
		s.Data = payloadFields([]byte(*out.SecretString))
	case len(out.SecretBinary) > 0:
		s.Data = payloadFields(out.SecretBinary)
	default:
		s.Data = map[string]string{}
	}
	return s, nil
}

// ─── Google Secret Manager ───────────────────────────────────────────────────

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type gcpBackend struct {
	client  *secretmanager.Client
	project string
}

func newGCPBackend(ctx context.Context, cfg config.SecretsConfig) (backend, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("secrets: gcp provider requires project id")
	}
	var opts []option.ClientOption
	if cfg.GCPCredsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to create gcp secret manager client: %w", err)
	}
	return &gcpBackend{client: client, project: cfg.GCPProjectID}, nil
}

func (g *gcpBackend) Kind() ProviderType { return ProviderGCP }

func (g *gcpBackend) Close() error { return g.client.Close() }

func (g *gcpBackend) Load(ctx context.Context, ref Reference) (Secret, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: gcpVersionName(g.project, ref),
	})
	if err != nil {
		return Secret{}, fmt.Errorf("secrets: gcp read of %s failed: %w", ref.Path, err)
	}

	s := Secret{Data: map[string]string{}, Version: resp.GetName()}
	payload := resp.GetPayload()
	if payload == nil {
		return s, nil
	}
	if payload.DataCrc32C != nil && int64(crc32.Checksum(payload.Data, castagnoli)) != payload.GetDataCrc32C() {
		return Secret{}, fmt.Errorf("secrets: gcp payload for %s failed its checksum", ref.Path)
	}
	s.Data = payloadFields(payload.Data)
	return s, nil
}

func gcpVersionName(project string, ref Reference) string {
	if strings.HasPrefix(ref.Path, "projects/") {
		return ref.Path
	}
	version := ref.Version
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, ref.Path, version)
}
