package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestDataRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{UserID: id, Role: "ADMIN"})

	rd := GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, id, rd.UserID)
	assert.Equal(t, "ADMIN", rd.Role)
	assert.Nil(t, GetRequestData(context.Background()))
	assert.Nil(t, GetRequestData(nil)) //nolint:staticcheck
}

func TestTraceDataIsIndependentOfRequestData(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})

	td := GetTraceData(ctx)
	require.NotNil(t, td)
	assert.Equal(t, TraceData{TraceID: "t", RequestID: "r"}, *td)
	assert.Nil(t, GetRequestData(ctx))
}
