package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// terminalWidget stands in for the hosted checkout: it shows the order and
// reads the gateway's payment id and signature from the operator. An empty
// payment id dismisses the checkout.
type terminalWidget struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalWidget(in io.Reader, out io.Writer) *terminalWidget {
	return &terminalWidget{in: bufio.NewReader(in), out: out}
}

func (w *terminalWidget) Open(ctx context.Context, order models.OrderHandle, p models.Principal) (models.GatewayResult, error) {
	fmt.Fprintf(w.out, "Order %s for application #%d: %.2f %s\n", order.OrderID, order.ApplicationID, order.Amount, order.Currency)
	fmt.Fprintf(w.out, "Paying as %s <%s>\n", p.Name, p.Email)

	paymentID, err := w.prompt(ctx, "Payment id (blank to cancel): ")
	if err != nil {
		return models.GatewayResult{}, err
	}
	if paymentID == "" {
		return models.GatewayResult{Cancelled: true}, nil
	}
	signature, err := w.prompt(ctx, "Signature: ")
	if err != nil {
		return models.GatewayResult{}, err
	}
	if signature == "" {
		return models.GatewayResult{Cancelled: true}, nil
	}
	return models.GatewayResult{OrderID: order.OrderID, PaymentID: paymentID, Signature: signature}, nil
}

func (w *terminalWidget) prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(w.out, label)
	line, err := w.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
