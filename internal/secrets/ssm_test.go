package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	params map[string]string
	puts   []*ssm.PutParameterInput
	gets   []*ssm.GetParameterInput
	err    error
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.gets = append(f.gets, params)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.params[aws.ToString(params.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("not found")}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: params.Name, Value: aws.String(v)}}, nil
}

func (f *fakeSSM) PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.puts = append(f.puts, params)
	if f.err != nil {
		return nil, f.err
	}
	f.params[aws.ToString(params.Name)] = aws.ToString(params.Value)
	return &ssm.PutParameterOutput{Version: 2}, nil
}

func TestSSMStore_Get(t *testing.T) {
	fake := &fakeSSM{params: map[string]string{"/nickate/FITBIT_CLIENT_ID": "client-id"}}
	store := NewSSMStoreWithClient(fake, "/nickate/")

	v, err := store.Get(context.Background(), "FITBIT_CLIENT_ID")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if v != "client-id" {
		t.Errorf("value = %q", v)
	}
	if !aws.ToBool(fake.gets[0].WithDecryption) {
		t.Error("parameters should be read with decryption")
	}
}

func TestSSMStore_GetNotFound(t *testing.T) {
	store := NewSSMStoreWithClient(&fakeSSM{params: map[string]string{}}, "")

	_, err := store.Get(context.Background(), "FITBIT_ACCESS_TOKEN")
	var nf NotFoundError
	if !errors.As(err, &nf) || nf.Name != "FITBIT_ACCESS_TOKEN" {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestSSMStore_GetError(t *testing.T) {
	boom := errors.New("throttled")
	store := NewSSMStoreWithClient(&fakeSSM{err: boom}, "")

	_, err := store.Get(context.Background(), "FITBIT_ACCESS_TOKEN")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped throttled", err)
	}
}

func TestSSMStore_Put(t *testing.T) {
	fake := &fakeSSM{params: map[string]string{}}
	store := NewSSMStoreWithClient(fake, "/nickate/")

	if err := store.Put(context.Background(), "FITBIT_REFRESH_TOKEN", "r2"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if fake.params["/nickate/FITBIT_REFRESH_TOKEN"] != "r2" {
		t.Errorf("params = %v", fake.params)
	}
	in := fake.puts[0]
	if in.Type != types.ParameterTypeSecureString {
		t.Errorf("Type = %q, want SecureString", in.Type)
	}
	if !aws.ToBool(in.Overwrite) {
		t.Error("Put should overwrite")
	}
}
