package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "rightsledger/internal/jwt_token"
	"rightsledger/internal/ledger/service"
	balancestore "rightsledger/internal/ledger/store/balance"
	receiptstore "rightsledger/internal/ledger/store/receipt"
	sharestore "rightsledger/internal/ledger/store/revenueshare"
	tokenstore "rightsledger/internal/ledger/store/token"
	transferstore "rightsledger/internal/ledger/store/transfer"
	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/testutil"
)

const testFee = uint64(100)

type testHarness struct {
	router *chi.Mux
	jwt    *jwttoken.JWTService
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	roleStore := roles.NewInMemoryStore()
	require.NoError(t, roleStore.Grant(t.Context(), "0xadmin", roles.RoleAdmin))
	require.NoError(t, roleStore.Grant(t.Context(), "0xminter", roles.RoleMinter))

	svc := service.New(service.Stores{
		Tokens:    tokenstore.NewInMemory(false),
		Balances:  balancestore.NewInMemory(),
		Shares:    sharestore.NewInMemory(),
		Receipts:  receiptstore.NewInMemory(),
		Transfers: transferstore.NewInMemory(),
		Roles:     roleStore,
	}, testFee)

	jwtSvc := jwttoken.NewJWTService("test-signing-key", "rightsledger-test", "rightsledger")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	New(svc, logger, jwtSvc).Register(router)

	return &testHarness{router: router, jwt: jwtSvc}
}

func (h *testHarness) do(t *testing.T, method, path, body string, as id.Address) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = testutil.NewRequest(t, method, path)
	} else {
		req = testutil.NewRequestWithBody(t, method, path, body)
	}
	if !as.IsZero() {
		token, err := h.jwt.GenerateAccessToken(as.String(), time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(h.router, req)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	return *testutil.UnmarshalResponse[T](t, rec)
}

const createBody = `{
	"key_locator": "https://keys.example/1",
	"document_ref": "doc-1",
	"recipients": ["0xartist", "0xlabel"],
	"shares": [6000, 4000],
	"paid_fee": 100
}`

func (h *testHarness) createToken(t *testing.T) id.TokenID {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/tokens", createBody, "0xcreator")
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody[createTokenResponse](t, rec).TokenID
}

func TestMutatingRoutesRequireAuth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/tokens", createBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/tokens/1/mint", `{}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueriesArePublic(t *testing.T) {
	h := newHarness(t)
	tokenID := h.createToken(t)

	rec := h.do(t, http.MethodGet, "/tokens/"+tokenID.String(), "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/treasury/fees", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testFee, decodeBody[collectedFeesResponse](t, rec).CollectedFees)
}

func TestCreateToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/tokens", createBody, "0xcreator")
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[createTokenResponse](t, rec)
	assert.Equal(t, id.TokenID(1), resp.TokenID)
	assert.Equal(t, uint64(0), resp.Refund)

	ownerRec := h.do(t, http.MethodGet, "/tokens/1/owner", "", "")
	require.Equal(t, http.StatusOK, ownerRec.Code)
	assert.Equal(t, id.Address("0xcreator"), decodeBody[ownerResponse](t, ownerRec).Owner)
}

func TestCreateTokenValidationErrors(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "insufficient fee",
			body:       `{"key_locator":"k","document_ref":"d","recipients":["0xa"],"shares":[10000],"paid_fee":99}`,
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name:       "length mismatch",
			body:       `{"key_locator":"k","document_ref":"d","recipients":["0xa","0xb"],"shares":[10000],"paid_fee":100}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "shares sum wrong",
			body:       `{"key_locator":"k","document_ref":"d","recipients":["0xa"],"shares":[9999],"paid_fee":100}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/tokens", tc.body, "0xcreator")
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestMintFlow(t *testing.T) {
	h := newHarness(t)
	tokenID := h.createToken(t)

	body := `{"customer":"0xcustomer","sale_amount":5000,"payment_invoice_id":"inv-1","paid_fee":100}`
	rec := h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/mint", body, "0xminter")
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[mintResponse](t, rec)
	assert.Equal(t, id.ReceiptID(1), resp.ReceiptID)

	// Non-minters are refused.
	rec = h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/mint", body, "0xcreator")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	balanceRec := h.do(t, http.MethodGet, "/tokens/"+tokenID.String()+"/balances/0xcustomer", "", "")
	require.Equal(t, http.StatusOK, balanceRec.Code)
	assert.Equal(t, uint64(1), decodeBody[balanceResponse](t, balanceRec).Balance)

	receiptRec := h.do(t, http.MethodGet, "/receipts/1", "", "")
	assert.Equal(t, http.StatusOK, receiptRec.Code)
}

func TestUpdateRevenueShareAndHistory(t *testing.T) {
	h := newHarness(t)
	tokenID := h.createToken(t)

	update := `{"recipients":["0xartist"],"shares":[10000]}`
	rec := h.do(t, http.MethodPut, "/tokens/"+tokenID.String()+"/revenue-share", update, "0xcreator")
	require.Equal(t, http.StatusNoContent, rec.Code)

	countRec := h.do(t, http.MethodGet, "/tokens/"+tokenID.String()+"/revenue-share/history/count", "", "")
	require.Equal(t, http.StatusOK, countRec.Code)
	assert.Equal(t, 1, decodeBody[countResponse](t, countRec).Count)

	// Strangers cannot update.
	rec = h.do(t, http.MethodPut, "/tokens/"+tokenID.String()+"/revenue-share", update, "0xstranger")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransferEndpoints(t *testing.T) {
	h := newHarness(t)
	tokenID := h.createToken(t)

	mint := `{"customer":"0xcustomer","sale_amount":5000,"payment_invoice_id":"inv-1","paid_fee":100}`
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/mint", mint, "0xminter").Code)

	move := `{"from":"0xcustomer","to":"0xother","amount":1}`

	// The ordinary transfer endpoint always reports the restriction.
	rec := h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/transfers", move, "0xcustomer")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Owner-authorized transfers are admin-gated.
	rec = h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/transfers/owner", move, "0xminter")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/transfers/owner", move, "0xadmin")
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The destination is now marked and refused as a source.
	back := `{"from":"0xother","to":"0xcustomer","amount":1}`
	rec = h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/transfers/owner", back, "0xadmin")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBurnEndpoint(t *testing.T) {
	h := newHarness(t)
	tokenID := h.createToken(t)

	mint := `{"customer":"0xcustomer","sale_amount":5000,"payment_invoice_id":"inv-1","paid_fee":100}`
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/mint", mint, "0xminter").Code)

	burn := `{"holder":"0xcustomer","amount":1}`
	rec := h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/burn", burn, "0xadmin")
	assert.Equal(t, http.StatusForbidden, rec.Code, "only the holder may burn")

	rec = h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/burn", burn, "0xcustomer")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/burn", burn, "0xcustomer")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code, "balance is gone")
}

func TestRoleEndpoints(t *testing.T) {
	h := newHarness(t)

	grant := `{"address":"0xnewminter","role":"minter"}`
	rec := h.do(t, http.MethodPost, "/roles/grants", grant, "0xminter")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/roles/grants", grant, "0xadmin")
	require.Equal(t, http.StatusNoContent, rec.Code)

	hasRec := h.do(t, http.MethodGet, "/roles/minter/0xnewminter", "", "")
	require.Equal(t, http.StatusOK, hasRec.Code)
	assert.True(t, decodeBody[hasRoleResponse](t, hasRec).HasRole)

	rec = h.do(t, http.MethodPost, "/roles/revocations", grant, "0xadmin")
	require.Equal(t, http.StatusNoContent, rec.Code)

	hasRec = h.do(t, http.MethodGet, "/roles/minter/0xnewminter", "", "")
	require.Equal(t, http.StatusOK, hasRec.Code)
	assert.False(t, decodeBody[hasRoleResponse](t, hasRec).HasRole)
}

func TestReceiptQueries(t *testing.T) {
	h := newHarness(t)
	tokenID := h.createToken(t)

	for _, customer := range []string{"0xc1", "0xc2", "0xc1"} {
		body := `{"customer":"` + customer + `","sale_amount":100,"payment_invoice_id":"inv","paid_fee":100}`
		require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/tokens/"+tokenID.String()+"/mint", body, "0xminter").Code)
	}

	rec := h.do(t, http.MethodGet, "/tokens/"+tokenID.String()+"/receipts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []id.ReceiptID{1, 2, 3}, decodeBody[receiptIDsResponse](t, rec).ReceiptIDs)

	rec = h.do(t, http.MethodGet, "/tokens/"+tokenID.String()+"/receipts?offset=1&limit=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[[]json.RawMessage](t, rec)
	assert.Len(t, page, 1)

	rec = h.do(t, http.MethodGet, "/customers/0xc1/receipts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []id.ReceiptID{1, 3}, decodeBody[receiptIDsResponse](t, rec).ReceiptIDs)

	rec = h.do(t, http.MethodGet, "/customers/0xc1/receipts/count", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[countResponse](t, rec).Count)

	rec = h.do(t, http.MethodGet, "/receipts/99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
