package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = common.HexToHash("0xabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcd")

func TestGetStatusLiveOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/live-order/"+testRef.Hex(), r.URL.Path)
		fmt.Fprint(w, `{"id":"`+testRef.Hex()+`","status":"LIVE","original_size":"100","size_matched":"40"}`)
	}))
	defer srv.Close()

	status, err := NewConditionClient(srv.URL).GetStatus(context.Background(), testRef)
	require.NoError(t, err)

	assert.False(t, status.ResolvedOrCancelled)
	assert.Equal(t, "60", status.Remaining.String())
}

func TestGetStatusMatchedOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","status":"MATCHED","original_size":"100","size_matched":"100"}`)
	}))
	defer srv.Close()

	status, err := NewConditionClient(srv.URL).GetStatus(context.Background(), testRef)
	require.NoError(t, err)

	assert.True(t, status.ResolvedOrCancelled)
	assert.True(t, status.RemainingZero())
}

func TestGetStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// An unknown ref is a zero status, not a transport error: validation
	// rejects the ref while a flaky venue would have been retried.
	status, err := NewConditionClient(srv.URL).GetStatus(context.Background(), testRef)
	require.NoError(t, err)

	assert.False(t, status.ResolvedOrCancelled)
	assert.True(t, status.RemainingZero())
}

func TestGetStatusServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewConditionClient(srv.URL).GetStatus(context.Background(), testRef)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGetStatusBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":`)
	}))
	defer srv.Close()

	_, err := NewConditionClient(srv.URL).GetStatus(context.Background(), testRef)
	assert.Error(t, err)
}

func TestToConditionStatus(t *testing.T) {
	t.Run("live order", func(t *testing.T) {
		o := APILiveOrder{Status: "LIVE", OriginalSize: "100", SizeMatched: "30"}
		status, err := o.ToConditionStatus()
		require.NoError(t, err)
		assert.False(t, status.ResolvedOrCancelled)
		assert.Equal(t, "70", status.Remaining.String())
	})

	t.Run("cancelled and expired close the condition", func(t *testing.T) {
		for _, s := range []string{"MATCHED", "CANCELLED", "EXPIRED"} {
			o := APILiveOrder{Status: s, OriginalSize: "100", SizeMatched: "100"}
			status, err := o.ToConditionStatus()
			require.NoError(t, err, s)
			assert.True(t, status.ResolvedOrCancelled, s)
		}
	})

	t.Run("empty sizes parse as zero", func(t *testing.T) {
		o := APILiveOrder{Status: "LIVE"}
		status, err := o.ToConditionStatus()
		require.NoError(t, err)
		assert.True(t, status.RemainingZero())
	})

	t.Run("matched beyond original is rejected", func(t *testing.T) {
		o := APILiveOrder{Status: "LIVE", OriginalSize: "10", SizeMatched: "11"}
		_, err := o.ToConditionStatus()
		assert.Error(t, err)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		o := APILiveOrder{Status: "HALTED", OriginalSize: "10", SizeMatched: "0"}
		_, err := o.ToConditionStatus()
		assert.Error(t, err)
	})

	t.Run("non-decimal size is rejected", func(t *testing.T) {
		o := APILiveOrder{Status: "LIVE", OriginalSize: "1.5", SizeMatched: "0"}
		_, err := o.ToConditionStatus()
		assert.Error(t, err)
	})
}
