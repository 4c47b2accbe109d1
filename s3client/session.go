package s3client

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"
)

// sessionHolder hands out the current session. A caller whose request failed reports the
// error and the refresher goroutine acquires a new session before serving it again.
type sessionHolder struct {
	curr      *session.Session
	requestCh <-chan *session.Session
	errorCh   chan<- error
	closeCh   chan<- struct{}
}

func keepSessionRefreshed(client *Client, sessionCh chan<- *session.Session, errorCh <-chan error, closeCh <-chan struct{}) {
	for {
		select {
		case sessionCh <- client.holder.curr:
		case err := <-errorCh:
			clientLogger.Error().Err(err).Msg("S3 request failed, refreshing session")
			if err = client.acquireNewSession(); err != nil {
				clientLogger.Error().Err(err).Msg("Could not refresh S3 session")
				continue
			}
			clientLogger.Info().Msg("S3 session refreshed")
		case <-closeCh:
			clientLogger.Info().Msg("Closing client")
			return
		}
	}
}

func (client *Client) tryRefreshingSession(err error) (*session.Session, error) {
	var sess *session.Session
	select {
	case client.holder.errorCh <- err:
		sess = <-client.holder.requestCh
	case sess = <-client.holder.requestCh:
	}
	if sess == nil {
		return nil, errors.New("failed to refresh session")
	}
	return sess, nil
}

func (client *Client) session() (*session.Session, error) {
	sess := <-client.holder.requestCh
	if sess == nil {
		return nil, errors.New("could not get session")
	}
	return sess, nil
}

func (client *Client) ec2Config() *aws.Config {
	return aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4)
}

func (client *Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, err
	}
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithCredentials(creds)

	if client.env.T2PEnv == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// acquireNewSession tries the instance role first and falls back to the credentials
// of the environment.
func (client *Client) acquireNewSession() error {
	sess, err := session.NewSession(client.ec2Config())
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			client.holder.curr = sess
			clientLogger.Info().Msg("S3 session initialized using EC2 role")
			return nil
		}
	}
	clientLogger.Info().Err(err).Msg("Could not initialize S3 session using EC2, trying env credentials")

	cfg, err := client.envConfig()
	if err == nil {
		sess, err = session.NewSession(cfg)
	}
	if err == nil {
		_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	}
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return errors.New("could not initialize S3 session")
	}
	client.holder.curr = sess
	clientLogger.Info().Msg("S3 session initialized using env credentials")
	return nil
}
