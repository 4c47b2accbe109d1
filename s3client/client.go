package s3client

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"text2phenotype.com/ner/logger"
)

const ContentTypeJSON = "application/json"

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	T2PEnv      string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

// Client reads annotation inputs from and writes results to one bucket.
type Client struct {
	holder *sessionHolder
	env    EnvironmentConfig
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		clientLogger.Error().Caller().Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}

	sessionCh := make(chan *session.Session)
	errorCh := make(chan error)
	closeCh := make(chan struct{}, 1)
	client := &Client{
		env: env,
		holder: &sessionHolder{
			requestCh: sessionCh,
			errorCh:   errorCh,
			closeCh:   closeCh,
		},
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	go keepSessionRefreshed(client, sessionCh, errorCh, closeCh)
	return client, nil
}

// Upload stores data under key, retrying once with a fresh session.
func (client *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	params := &s3manager.UploadInput{
		Bucket:      aws.String(client.env.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	sess, err := client.session()
	if err != nil {
		return err
	}
	if err = client.upload(ctx, sess, params); err == nil {
		return nil
	}
	if sess, err = client.tryRefreshingSession(err); err != nil {
		return err
	}
	// the body was consumed by the failed attempt
	params.Body = bytes.NewReader(data)
	return client.upload(ctx, sess, params)
}

// Download returns the object stored under key, retrying once with a fresh session.
func (client *Client) Download(ctx context.Context, key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
	}
	sess, err := client.session()
	if err != nil {
		return nil, err
	}
	res, err := client.download(ctx, sess, params)
	if err == nil {
		return res, nil
	}
	if sess, err = client.tryRefreshingSession(err); err != nil {
		return nil, err
	}
	return client.download(ctx, sess, params)
}

func (client *Client) Close() {
	client.holder.closeCh <- struct{}{}
}

func (client *Client) upload(ctx context.Context, sess *session.Session, params *s3manager.UploadInput) error {
	objLogger := clientLogger.With().Str("key", *params.Key).Str("bucket", *params.Bucket).Logger()
	uploader := s3manager.NewUploader(sess.Copy(sdkConfig(*params.Key, *params.Bucket)))
	objLogger.Debug().Msg("Uploading the file")
	_, err := uploader.UploadWithContext(ctx, params)
	if err != nil {
		objLogger.Error().Err(err).Msg("Failed to upload file")
	}
	return err
}

func (client *Client) download(ctx context.Context, sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	objLogger := clientLogger.With().Str("key", *params.Key).Str("bucket", *params.Bucket).Logger()
	downloader := s3manager.NewDownloader(sess.Copy(sdkConfig(*params.Key, *params.Bucket)))

	buf := aws.NewWriteAtBuffer([]byte{})
	objLogger.Debug().Msg("Downloading file")
	size, err := downloader.DownloadWithContext(ctx, buf, params)
	if err != nil {
		objLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	objLogger.Debug().Int64("size", size).Msg("Downloaded file")
	return buf.Bytes(), nil
}

func sdkConfig(key string, bucket string) *aws.Config {
	sdkLog := sdkLogger.With().Str("key", key).Str("bucket", bucket).Logger()
	return &aws.Config{
		Logger:   &s3Logger{log: sdkLog},
		LogLevel: aws.LogLevel(aws.LogDebug),
	}
}

// s3Logger routes the SDK debug output to zerolog.
type s3Logger struct {
	log zerolog.Logger
}

func (l *s3Logger) Log(v ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(v...))
}
