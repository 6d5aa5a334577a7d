package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baywoodland/woodland/internal/logging"
	"github.com/baywoodland/woodland/internal/notification"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	return n.err
}

func (n *recordingNotifier) last() notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

func sequence(codes ...string) Generator {
	i := 0
	return GeneratorFunc(func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	})
}

func newTestService(store Store, n notification.Notifier, opts ...Option) *Service {
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return NewService(store, n, opts...)
}

func TestRequestThenVerifySucceedsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	n := &recordingNotifier{}
	svc := newTestService(store, n)

	code, err := svc.RequestOTP(ctx, "a@x.io")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}
	if got := n.last(); got.Subject != "Your OTP for Verification" || got.To != "a@x.io" || !strings.Contains(got.Body, code) {
		t.Fatalf("unexpected message %+v", got)
	}

	if err := svc.VerifyOTP(ctx, "a@x.io", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.VerifyOTP(ctx, "a@x.io", code); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification on reuse, got %v", err)
	}
}

func TestVerifyWithoutPendingCode(t *testing.T) {
	svc := newTestService(NewMemoryStore(0), &recordingNotifier{})

	err := svc.VerifyOTP(context.Background(), "b@x.io", "000000")
	if !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
	if err.Error() != "invalid or expired OTP" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrongCodeLeavesPendingCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore(0), &recordingNotifier{}, WithGenerator(sequence("123456")))

	if _, err := svc.RequestOTP(ctx, "c@x.io"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := svc.VerifyOTP(ctx, "c@x.io", "654321"); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
	if err := svc.VerifyOTP(ctx, "c@x.io", "123456"); err != nil {
		t.Fatalf("correct code should still verify: %v", err)
	}
}

func TestSecondRequestOverwritesFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore(0), &recordingNotifier{}, WithGenerator(sequence("111111", "222222")))

	first, _ := svc.RequestOTP(ctx, "d@x.io")
	second, _ := svc.RequestOTP(ctx, "d@x.io")

	if err := svc.VerifyOTP(ctx, "d@x.io", first); !errors.Is(err, ErrVerification) {
		t.Fatalf("old code should fail, got %v", err)
	}
	if err := svc.VerifyOTP(ctx, "d@x.io", second); err != nil {
		t.Fatalf("new code should verify: %v", err)
	}
}

func TestEmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore(0), &recordingNotifier{}, WithGenerator(sequence("123456")))

	if _, err := svc.RequestOTP(ctx, "Case@x.io"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := svc.VerifyOTP(ctx, "case@x.io", "123456"); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification for differently cased email, got %v", err)
	}
}

func TestValidationLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	n := &recordingNotifier{}
	svc := newTestService(store, n)

	if _, err := svc.RequestOTP(ctx, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := svc.VerifyOTP(ctx, "e@x.io", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing code, got %v", err)
	}
	if store.Len() != 0 || len(n.sent) != 0 {
		t.Fatalf("store or notifier touched: %d entries, %d sent", store.Len(), len(n.sent))
	}
}

func TestDeliveryFailureKeepsStoredCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	svc := newTestService(store, &recordingNotifier{err: errors.New("smtp down")}, WithGenerator(sequence("314159")))

	_, err := svc.RequestOTP(ctx, "f@x.io")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	var de *DeliveryError
	if !errors.As(err, &de) || !de.Retryable() {
		t.Fatalf("expected retryable DeliveryError, got %v", err)
	}
	if got, err := store.Get(ctx, "f@x.io"); err != nil || got != "314159" {
		t.Fatalf("expected stored code to remain, got %q %v", got, err)
	}
}

func TestOTPBodyMentionsTTL(t *testing.T) {
	n := &recordingNotifier{}
	svc := newTestService(NewMemoryStore(10*time.Minute), n, WithTTL(10*time.Minute), WithGenerator(sequence("271828")))

	if _, err := svc.RequestOTP(context.Background(), "g@x.io"); err != nil {
		t.Fatalf("request: %v", err)
	}
	want := "Your OTP is 271828. It will expire in 10 minutes."
	if got := n.last().Body; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSendConfirmation(t *testing.T) {
	n := &recordingNotifier{}
	svc := newTestService(NewMemoryStore(0), n)

	err := svc.SendConfirmation(context.Background(), Confirmation{
		Email:       "h@x.io",
		FullName:    "Ada",
		InquiryType: "Tours",
		Message:     "Hi",
	})
	if err != nil {
		t.Fatalf("send confirmation: %v", err)
	}
	got := n.last()
	if got.Subject != "Confirmation of Your Inquiry" || got.Kind != notification.KindInquiryConfirmation {
		t.Fatalf("unexpected message %+v", got)
	}
	for _, part := range []string{"Hello Ada,", "Inquiry Type: Tours", "Message: Hi", "The Support Team"} {
		if !strings.Contains(got.Body, part) {
			t.Fatalf("body missing %q: %q", part, got.Body)
		}
	}
}

func TestSendConfirmationRequiresAllFields(t *testing.T) {
	n := &recordingNotifier{}
	svc := newTestService(NewMemoryStore(0), n)

	err := svc.SendConfirmation(context.Background(), Confirmation{Email: "h@x.io", FullName: "Ada", InquiryType: "Tours"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestRandomGeneratorRange(t *testing.T) {
	g := RandomGenerator{}
	for i := 0; i < 200; i++ {
		code, err := g.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 || code[0] == '0' {
			t.Fatalf("code out of range: %q", code)
		}
	}
}

func TestDifferentEmailsDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore(0), &recordingNotifier{})

	var wg sync.WaitGroup
	codes := make([]string, 20)
	emails := make([]string, 20)
	for i := range codes {
		emails[i] = "user" + string(rune('a'+i)) + "@x.io"
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], _ = svc.RequestOTP(ctx, emails[i])
		}(i)
	}
	wg.Wait()

	for i := range codes {
		if err := svc.VerifyOTP(ctx, emails[i], codes[i]); err != nil {
			t.Fatalf("verify %s: %v", emails[i], err)
		}
	}
}
