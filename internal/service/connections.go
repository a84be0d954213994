package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feedgrid/feedgrid/internal/apperr"
	"github.com/feedgrid/feedgrid/internal/meta"
	"github.com/feedgrid/feedgrid/internal/models"
)

// GraphAPI is the slice of the Graph client the connection lifecycle needs.
type GraphAPI interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	UpgradeToken(ctx context.Context, shortToken string) (meta.LongLivedToken, error)
	RefreshToken(ctx context.Context, currentToken string) (meta.LongLivedToken, error)
	ListPages(ctx context.Context, accessToken string) ([]models.Page, error)
	ResolveBusinessAccount(ctx context.Context, pageID, pageToken string) (models.BusinessAccount, bool, error)
}

// GraphClientSource returns the Graph client for the current configuration.
// Resolving per call means a configuration update takes effect without
// restarting dependents.
type GraphClientSource func() (GraphAPI, error)

// ConnectionRepository defines the persistence operations required by the
// ConnectionService.
type ConnectionRepository interface {
	Create(ctx context.Context, c models.SocialConnection) (*models.SocialConnection, error)
	GetByOwner(ctx context.Context, userID, id string) (*models.SocialConnection, error)
	ListByUser(ctx context.Context, userID string) ([]models.SocialConnection, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.SocialConnection, error)
	UpdateToken(ctx context.Context, id, encryptedToken string, expiry time.Time) error
	Delete(ctx context.Context, userID, id string) error
}

// CredentialVault is the encryption surface the lifecycle needs. Every
// token leaving this service is encrypted; every token entering an API
// call is decrypted from the stored blob.
type CredentialVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}

// StateStore binds anti-forgery state to the initiating user.
type StateStore interface {
	Generate(userID string) (string, error)
	Consume(state string) (string, bool)
}

// ConnectionService drives the OAuth exchange, long-lived token
// acquisition, business account resolution and scheduled refresh.
type ConnectionService struct {
	repo   ConnectionRepository
	vault  CredentialVault
	states StateStore
	graph  GraphClientSource
	log    *zap.Logger
}

// NewConnectionService constructs a ConnectionService.
func NewConnectionService(
	repo ConnectionRepository,
	vault CredentialVault,
	states StateStore,
	graph GraphClientSource,
	log *zap.Logger,
) *ConnectionService {
	return &ConnectionService{repo: repo, vault: vault, states: states, graph: graph, log: log}
}

// Initiate generates an anti-forgery state bound to userID and returns the
// authorization redirect target embedding it.
func (s *ConnectionService) Initiate(userID string) (string, error) {
	client, err := s.graph()
	if err != nil {
		return "", err
	}
	state, err := s.states.Generate(userID)
	if err != nil {
		return "", err
	}
	return client.AuthorizationURL(state), nil
}

// HandleCallback completes the OAuth flow: it validates the state, exchanges
// the code, upgrades to a long-lived token, walks the returned pages in
// order, and persists exactly the first one that resolves to a business
// account (first-match-wins, not best-match). The persisted page token is
// encrypted; plaintext never reaches the store.
func (s *ConnectionService) HandleCallback(ctx context.Context, state, code string) (*models.SocialConnection, error) {
	userID, ok := s.states.Consume(state)
	if !ok {
		return nil, fmt.Errorf("%w: unknown or expired oauth state", apperr.ErrOAuth)
	}

	client, err := s.graph()
	if err != nil {
		return nil, err
	}

	shortToken, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	longToken, err := client.UpgradeToken(ctx, shortToken)
	if err != nil {
		return nil, err
	}

	pages, err := client.ListPages(ctx, longToken.AccessToken)
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		account, found, err := client.ResolveBusinessAccount(ctx, page.ID, page.AccessToken)
		if err != nil {
			return nil, err
		}
		if !found {
			// The page has no linked business account; try the next one.
			continue
		}

		encryptedToken, err := s.vault.Encrypt(page.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("encrypt page token: %w", err)
		}

		connection, err := s.repo.Create(ctx, models.SocialConnection{
			UserID:            userID,
			Provider:          models.WidgetInstagramBusiness,
			PageID:            page.ID,
			PageName:          page.Name,
			BusinessAccountID: account.ID,
			Username:          account.Username,
			AccessToken:       encryptedToken,
			TokenExpiry:       longToken.ExpiresAt(time.Now()),
		})
		if err != nil {
			return nil, err
		}

		s.log.Info("social connection established",
			zap.String("connection_id", connection.ID),
			zap.String("ig_username", connection.Username),
		)
		return connection, nil
	}

	return nil, fmt.Errorf("%w: no page with a linked business account", apperr.ErrNotFound)
}

// Refresh exchanges the stored token for a fresh one and replaces the
// credential. Concurrent refreshes for the same connection are not
// serialized; each produces an independently valid token and the last
// write wins.
func (s *ConnectionService) Refresh(ctx context.Context, userID, connectionID string) error {
	connection, err := s.repo.GetByOwner(ctx, userID, connectionID)
	if err != nil {
		return err
	}
	return s.refreshConnection(ctx, connection)
}

func (s *ConnectionService) refreshConnection(ctx context.Context, connection *models.SocialConnection) error {
	client, err := s.graph()
	if err != nil {
		return err
	}

	currentToken, err := s.vault.Decrypt(connection.AccessToken)
	if err != nil {
		// The stored credential is unrecoverable; the connection needs
		// re-authorization, not a retry.
		return fmt.Errorf("connection %s: %w", connection.ID, err)
	}

	fresh, err := client.RefreshToken(ctx, currentToken)
	if err != nil {
		return err
	}

	encryptedToken, err := s.vault.Encrypt(fresh.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt refreshed token: %w", err)
	}

	return s.repo.UpdateToken(ctx, connection.ID, encryptedToken, fresh.ExpiresAt(time.Now()))
}

// List returns the user's connections. Token material is stripped before
// the result leaves the service.
func (s *ConnectionService) List(ctx context.Context, userID string) ([]models.SocialConnection, error) {
	connections, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range connections {
		connections[i].AccessToken = ""
	}
	return connections, nil
}

// Disconnect deletes a connection. Widgets referencing it degrade to an
// empty business feed rather than failing.
func (s *ConnectionService) Disconnect(ctx context.Context, userID, connectionID string) error {
	return s.repo.Delete(ctx, userID, connectionID)
}

// StartTokenRefresher refreshes connections whose tokens expire within
// leadWindow, checking every interval. Failures are logged and retried on
// the next tick; a single bad connection does not stop the sweep.
func (s *ConnectionService) StartTokenRefresher(ctx context.Context, interval, leadWindow time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(leadWindow)
				connections, err := s.repo.ListExpiringBefore(ctx, cutoff)
				if err != nil {
					s.log.Error("failed to list expiring connections", zap.Error(err))
					continue
				}
				for i := range connections {
					if err := s.refreshConnection(ctx, &connections[i]); err != nil {
						s.log.Error("failed to refresh connection",
							zap.String("connection_id", connections[i].ID),
							zap.Error(err),
						)
						continue
					}
					s.log.Info("refreshed connection token",
						zap.String("connection_id", connections[i].ID))
				}
			}
		}
	}()
}
