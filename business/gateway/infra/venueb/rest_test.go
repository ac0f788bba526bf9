package venueb

import "testing"

func TestVenueBGatewayErrorHandler_RateLimitCodesAreNotErrors(t *testing.T) {
	for _, status := range []int{429, 418} {
		if err := venueBGatewayErrorHandler(status, []byte(`{"code":-1003,"msg":"Too many requests"}`)); err != nil {
			t.Errorf("status %d: expected nil error so the caller can classify it as rate-limited, got %v", status, err)
		}
	}
}

func TestVenueBGatewayErrorHandler_ParsesAPIErrorBody(t *testing.T) {
	err := venueBGatewayErrorHandler(400, []byte(`{"code":-1013,"msg":"Invalid quantity"}`))
	if err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if got := err.Error(); got == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestVenueBGatewayErrorHandler_FallsBackToRawBodyOnUnparsableJSON(t *testing.T) {
	err := venueBGatewayErrorHandler(500, []byte("internal server error"))
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestVenueBGatewayErrorHandler_SuccessCodesAreNil(t *testing.T) {
	if err := venueBGatewayErrorHandler(200, []byte(`{"code":0}`)); err != nil {
		t.Errorf("expected nil error for a 200 response, got %v", err)
	}
}
