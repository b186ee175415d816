package build

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cotton-web/cotton/internal/errors"
)

// DeployConfig configures the S3 deploy.
type DeployConfig struct {
	// Bucket is the destination S3 bucket.
	Bucket string

	// Prefix is prepended to every object key.
	Prefix string

	// Region is the AWS region. Empty uses the SDK default chain.
	Region string

	// OnUpload is called for each uploaded object key.
	OnUpload func(key string)
}

// s3PutClient is the slice of the S3 API the deployer needs.
type s3PutClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Deployer uploads a build output directory to S3.
type Deployer struct {
	client s3PutClient
	config DeployConfig
}

// NewDeployer creates a deployer using the AWS default credential
// chain.
func NewDeployer(ctx context.Context, cfg DeployConfig) (*Deployer, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("C203").WithDetail("No deploy bucket configured.").
			WithSuggestion("Set build.deploy.bucket in cotton.json or COTTON_DEPLOY_BUCKET.")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New("C203").Wrap(err)
	}

	return &Deployer{
		client: s3.NewFromConfig(awsCfg),
		config: cfg,
	}, nil
}

// NewDeployerWithClient creates a deployer with an explicit client.
func NewDeployerWithClient(client s3PutClient, cfg DeployConfig) *Deployer {
	return &Deployer{client: client, config: cfg}
}

// Deploy uploads every file under dir to the bucket. Returns the
// number of uploaded objects.
func (d *Deployer) Deploy(ctx context.Context, dir string) (int, error) {
	uploaded := 0

	err := filepath.Walk(dir, func(src string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := filepath.Rel(dir, src)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if d.config.Prefix != "" {
			key = strings.TrimSuffix(d.config.Prefix, "/") + "/" + key
		}

		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()

		input := &s3.PutObjectInput{
			Bucket: aws.String(d.config.Bucket),
			Key:    aws.String(key),
			Body:   f,
		}
		if ct := mime.TypeByExtension(filepath.Ext(src)); ct != "" {
			input.ContentType = aws.String(ct)
		}
		if cc := cacheControlFor(filepath.Base(src)); cc != "" {
			input.CacheControl = aws.String(cc)
		}

		if _, err := d.client.PutObject(ctx, input); err != nil {
			return err
		}

		uploaded++
		if d.config.OnUpload != nil {
			d.config.OnUpload(key)
		}
		return nil
	})
	if err != nil {
		return uploaded, errors.New("C203").Wrap(err)
	}
	return uploaded, nil
}

var fingerprintRe = regexp.MustCompile(`\.[0-9a-f]{8,}\.[a-z0-9]+$`)

// cacheControlFor picks the Cache-Control for an object. Fingerprinted
// assets are immutable; everything else revalidates.
func cacheControlFor(name string) string {
	if fingerprintRe.MatchString(strings.ToLower(name)) {
		return "public, max-age=31536000, immutable"
	}
	return "public, max-age=0, must-revalidate"
}
