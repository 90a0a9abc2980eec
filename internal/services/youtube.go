// YouTube Data API implementation of [Service]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL      = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL     = "https://oauth2.googleapis.com/token"
	defaultYTBaseURL   = "https://www.googleapis.com/youtube/v3"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	// YouTube's category id for Music videos.
	musicCategoryID = "10"

	likedPageSize = 50
)

// Scopes required for reading liked videos and writing playlists.
var Scopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// likedPage is one page of the videos.list?myRating=like response.
type likedPage struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			CategoryID   string `json:"categoryId"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// YouTubeService implements the [Service] interface for the YouTube Data API.
// Uses [oauth2] for authentication with a single refresh-and-retry on 401.
type YouTubeService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	baseURL        string
	userinfoURL    string
	onTokenRefresh func(token *oauth2.Token)
}

// NewYouTubeService creates a new YouTube service with the given OAuth2 credentials.
func NewYouTubeService(credentials map[string]string) (*YouTubeService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/auth/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}

	return &YouTubeService{
		config:      config,
		httpClient:  http.DefaultClient,
		baseURL:     defaultYTBaseURL,
		userinfoURL: defaultUserinfoURL,
	}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Authenticate installs a credential. Expects "access_token" and optionally
// "refresh_token" and "token_expiry" (RFC 3339) in credentials.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	accessToken := credentials["access_token"]
	refreshToken := credentials["refresh_token"]
	if accessToken == "" && refreshToken == "" {
		return fmt.Errorf("%w: missing access_token or refresh_token", shared.ErrMissingCredentials)
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if expiry, ok := credentials["token_expiry"]; ok && expiry != "" {
		if t, err := time.Parse(time.RFC3339, expiry); err == nil {
			token.Expiry = t
		}
	}

	y.token = token
	return nil
}

// AuthURL returns the OAuth2 authorization URL for user login.
//
// Forces the consent prompt so Google reissues a refresh token.
func (y *YouTubeService) AuthURL(state string) string {
	return y.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token and installs it.
func (y *YouTubeService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := y.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	y.token = token
	return token, nil
}

// SetTokenRefreshCallback registers a callback invoked whenever the service
// refreshes its token, so callers can persist the new credential.
func (y *YouTubeService) SetTokenRefreshCallback(fn func(token *oauth2.Token)) {
	y.onTokenRefresh = fn
}

// Token returns the currently installed token.
func (y *YouTubeService) Token() *oauth2.Token {
	return y.token
}

// refresh exchanges the refresh token for a new access token and notifies
// the refresh callback. Called at most once per failing request.
func (y *YouTubeService) refresh(ctx context.Context) error {
	if y.token == nil || y.token.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	source := y.config.TokenSource(ctx, &oauth2.Token{RefreshToken: y.token.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if token.RefreshToken == "" {
		token.RefreshToken = y.token.RefreshToken
	}
	y.token = token

	if y.onTokenRefresh != nil {
		y.onTokenRefresh(token)
	}

	return nil
}

// doRequest performs an authenticated HTTP request against the API.
// Non-2xx responses return a [*StatusError].
func (y *YouTubeService) doRequest(ctx context.Context, method, fullURL string, body, result any) error {
	if y.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+y.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		detail := ""
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			detail = errResp.Error.Message
		}
		return &StatusError{Code: resp.StatusCode, Detail: detail}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// doWithRetry performs a request, refreshing the credential once on a 401
// and retrying. A second 401 after the retry is fatal.
func (y *YouTubeService) doWithRetry(ctx context.Context, method, fullURL string, body, result any) error {
	err := y.doRequest(ctx, method, fullURL, body, result)
	if !isAuthStatus(err) {
		return err
	}

	if refreshErr := y.refresh(ctx); refreshErr != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthExpired, refreshErr)
	}

	err = y.doRequest(ctx, method, fullURL, body, result)
	if isAuthStatus(err) {
		return fmt.Errorf("%w: request failed after token refresh", shared.ErrAuthExpired)
	}
	return err
}

// isAuthStatus reports whether the error is a 401 from the upstream API.
func isAuthStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized
}

// Profile retrieves the authenticated user's identity from the userinfo endpoint.
func (y *YouTubeService) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := y.doWithRetry(ctx, http.MethodGet, y.userinfoURL, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LikedSongs retrieves the complete ordered list of the user's liked songs.
//
// Pages through videos.list?myRating=like (50 per page) until no nextPageToken
// is returned, keeping only items in the music category. An auth failure that
// survives one refresh aborts the collection with no partial results.
func (y *YouTubeService) LikedSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("myRating", "like")
		params.Set("maxResults", fmt.Sprintf("%d", likedPageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		endpoint := fmt.Sprintf("%s/videos?%s", y.baseURL, params.Encode())

		var page likedPage
		if err := y.doWithRetry(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Snippet.CategoryID != musicCategoryID {
				continue
			}
			songs = append(songs, models.Song{
				VideoID: item.ID,
				Title:   item.Snippet.Title,
				Channel: item.Snippet.ChannelTitle,
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return songs, nil
}

// CreatePlaylist creates an empty playlist and returns its external ID.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, meta models.PlaylistMeta) (string, error) {
	privacy := meta.Privacy
	if privacy == "" {
		privacy = "private"
	}

	createReq := struct {
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
		} `json:"status"`
	}{}
	createReq.Snippet.Title = meta.Title
	createReq.Snippet.Description = meta.Description
	createReq.Status.PrivacyStatus = privacy

	endpoint := fmt.Sprintf("%s/playlists?part=snippet%%2Cstatus", y.baseURL)

	var createResp struct {
		ID string `json:"id"`
	}
	if err := y.doWithRetry(ctx, http.MethodPost, endpoint, createReq, &createResp); err != nil {
		return "", err
	}

	if createResp.ID == "" {
		return "", fmt.Errorf("%w: create playlist returned no id", shared.ErrUpstream)
	}

	return createResp.ID, nil
}

// AddPlaylistItem adds a single video to a playlist.
func (y *YouTubeService) AddPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	addReq := struct {
		Snippet struct {
			PlaylistID string `json:"playlistId"`
			ResourceID struct {
				Kind    string `json:"kind"`
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	}{}
	addReq.Snippet.PlaylistID = playlistID
	addReq.Snippet.ResourceID.Kind = "youtube#video"
	addReq.Snippet.ResourceID.VideoID = videoID

	endpoint := fmt.Sprintf("%s/playlistItems?part=snippet", y.baseURL)

	return y.doWithRetry(ctx, http.MethodPost, endpoint, addReq, nil)
}
