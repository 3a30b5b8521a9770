package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"ballotbox/internal/app/service"
	"ballotbox/internal/common"
	"ballotbox/internal/common/security"
	"ballotbox/internal/domain/model"
	"ballotbox/internal/platform/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTKey:        []byte("test-secret"),
		JWTExp:        time.Hour,
		TallyCacheTTL: 30 * time.Second,
	}
	security.InitJWT()
	os.Exit(m.Run())
}

// memStore backs all three repository interfaces for router tests.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*model.User
	candidates map[string]*model.Candidate
	votes      map[string][]model.Vote
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*model.User),
		candidates: make(map[string]*model.Candidate),
		votes:      make(map[string][]model.Vote),
	}
}

func (s *memStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.NationalID == user.NationalID {
			return common.ErrConflict
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) FindByNationalID(ctx context.Context, nationalID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.NationalID == nationalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *memStore) AdminExists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Role == model.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

type memCandidateStore struct{ *memStore }

func (s memCandidateStore) Create(ctx context.Context, c *model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.candidates[c.ID] = &cp
	return nil
}

func (s memCandidateStore) Update(ctx context.Context, c *model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.candidates[c.ID]
	if !ok {
		return common.ErrNotFound
	}
	*existing = *c
	return nil
}

func (s memCandidateStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.candidates, id)
	delete(s.votes, id)
	return nil
}

func (s memCandidateStore) FindByID(ctx context.Context, id string) (*model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s memCandidateStore) ListSummaries(ctx context.Context) ([]model.CandidateSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := []model.CandidateSummary{}
	for _, c := range s.candidates {
		summaries = append(summaries, model.CandidateSummary{Name: c.Name, Party: c.Party, Slug: c.Slug})
	}
	return summaries, nil
}

func (s memCandidateStore) Tally(ctx context.Context) ([]model.TallyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []model.TallyEntry{}
	for _, c := range s.candidates {
		entries = append(entries, model.TallyEntry{Party: c.Party, Count: c.VoteCount})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Party < entries[j].Party
	})
	return entries, nil
}

func (s memCandidateStore) VotesForCandidate(ctx context.Context, candidateID string) ([]model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Vote{}, s.votes[candidateID]...), nil
}

type memVoteStore struct{ *memStore }

func (s memVoteStore) CastVote(ctx context.Context, voterID, candidateID string, votedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.users[voterID]
	if !ok {
		return common.ErrNotFound
	}
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return common.ErrNotFound
	}
	if voter.HasVoted {
		return common.ErrAlreadyVoted
	}
	voter.HasVoted = true
	candidate.VoteCount++
	s.votes[candidateID] = append(s.votes[candidateID], model.Vote{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		UserID:      voterID,
		VotedAt:     votedAt,
	})
	return nil
}

func newTestRouter() http.Handler {
	store := newMemStore()
	candidateStore := memCandidateStore{store}
	voteStore := memVoteStore{store}

	authService := service.NewAuthService(store)
	userService := service.NewUserService(store)
	candidateService := service.NewCandidateService(candidateStore, store, nil)
	voteService := service.NewVoteService(voteStore, candidateStore, store, nil)

	return NewRouter(authService, userService, candidateService, voteService, store)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, router http.Handler, nationalID, password, role string) (userID, token string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/user/signup", "", map[string]interface{}{
		"name":        "Test User",
		"age":         30,
		"address":     "14 Lake Road",
		"national_id": nationalID,
		"password":    password,
		"role":        role,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.User.ID, resp.Token
}

func TestVotingFlow(t *testing.T) {
	router := newTestRouter()

	_, adminToken := signup(t, router, "999999999999", "admin-pass", "admin")
	_, voterToken := signup(t, router, "123456789012", "voter-pass", "")

	// Unauthenticated and non-admin candidate creation are rejected.
	w := doJSON(t, router, http.MethodPost, "/candidate", "", service.CandidateRequest{Name: "Alice", Party: "PartyX", Age: 45})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/candidate", voterToken, service.CandidateRequest{Name: "Alice", Party: "PartyX", Age: 45})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin creates Alice and Bob.
	w = doJSON(t, router, http.MethodPost, "/candidate", adminToken, service.CandidateRequest{Name: "Alice", Party: "PartyX", Age: 45})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var alice model.Candidate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&alice))

	w = doJSON(t, router, http.MethodPost, "/candidate", adminToken, service.CandidateRequest{Name: "Bob", Party: "PartyY", Age: 52})
	require.Equal(t, http.StatusOK, w.Code)
	var bob model.Candidate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&bob))

	// Admin cannot vote.
	w = doJSON(t, router, http.MethodPost, "/candidate/vote/"+alice.ID, adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Voter votes for Alice.
	w = doJSON(t, router, http.MethodPost, "/candidate/vote/"+alice.ID, voterToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A second vote by the same voter fails, even for another candidate.
	w = doJSON(t, router, http.MethodPost, "/candidate/vote/"+bob.ID, voterToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Two more voters: one for Alice, one for Bob.
	_, secondToken := signup(t, router, "300000000001", "pass-two", "")
	w = doJSON(t, router, http.MethodPost, "/candidate/vote/"+alice.ID, secondToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, thirdToken := signup(t, router, "300000000002", "pass-three", "")
	w = doJSON(t, router, http.MethodPost, "/candidate/vote/"+bob.ID, thirdToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Public tally, sorted by count descending.
	w = doJSON(t, router, http.MethodGet, "/candidate/vote/count", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tally []model.TallyEntry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tally))
	require.Len(t, tally, 2)
	assert.Equal(t, model.TallyEntry{Party: "PartyX", Count: 2}, tally[0])
	assert.Equal(t, model.TallyEntry{Party: "PartyY", Count: 1}, tally[1])

	// Public candidate list exposes name and party only.
	w = doJSON(t, router, http.MethodGet, "/candidate", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.CandidateSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 2)

	// Voting against a missing candidate is a 404 for a fresh voter.
	_, fourthToken := signup(t, router, "300000000003", "pass-four", "")
	w = doJSON(t, router, http.MethodPost, "/candidate/vote/"+uuid.NewString(), fourthToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginAndProfileFlow(t *testing.T) {
	router := newTestRouter()

	userID, _ := signup(t, router, "123456789012", "voter-pass", "")

	w := doJSON(t, router, http.MethodPost, "/user/login", "", service.LoginRequest{NationalID: "123456789012", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/user/login", "", service.LoginRequest{NationalID: "123456789012", Password: "voter-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var loginResp service.LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp.Token)

	w = doJSON(t, router, http.MethodGet, "/user/profile", loginResp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profileResp struct {
		User model.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profileResp))
	assert.Equal(t, userID, profileResp.User.ID)
	assert.Equal(t, "123456789012", profileResp.User.NationalID)

	// No token at all.
	w = doJSON(t, router, http.MethodGet, "/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = doJSON(t, router, http.MethodGet, "/user/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordFlow(t *testing.T) {
	router := newTestRouter()

	_, token := signup(t, router, "123456789012", "old-pass", "")

	w := doJSON(t, router, http.MethodPut, "/user/profile/password", token, service.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPut, "/user/profile/password", token, service.ChangePasswordRequest{
		CurrentPassword: "old-pass",
		NewPassword:     "new-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/user/login", "", service.LoginRequest{NationalID: "123456789012", Password: "old-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/user/login", "", service.LoginRequest{NationalID: "123456789012", Password: "new-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCandidateAdminCRUDFlow(t *testing.T) {
	router := newTestRouter()

	_, adminToken := signup(t, router, "999999999999", "admin-pass", "admin")

	w := doJSON(t, router, http.MethodPost, "/candidate", adminToken, service.CandidateRequest{Name: "Alice", Party: "PartyX", Age: 45})
	require.Equal(t, http.StatusOK, w.Code)
	var alice model.Candidate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&alice))

	w = doJSON(t, router, http.MethodPut, "/candidate/"+alice.ID, adminToken, service.CandidateRequest{Name: "Alice", Party: "PartyZ", Age: 46})
	require.Equal(t, http.StatusOK, w.Code)
	var updated model.Candidate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "PartyZ", updated.Party)

	w = doJSON(t, router, http.MethodPut, "/candidate/"+uuid.NewString(), adminToken, service.CandidateRequest{Name: "Ghost", Party: "PartyG", Age: 40})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/candidate/"+alice.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/candidate/"+alice.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
