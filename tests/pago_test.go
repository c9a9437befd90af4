package tests

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/model"
	"apolo/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagoFixture struct {
	*checkoutFixture
	pago service.PagoService
}

func buildPagoSvc() *pagoFixture {
	fx := buildCheckoutSvc()
	pago := service.NewPagoService(fx.facturaRepo, fx.svc, newTestConfig())
	return &pagoFixture{checkoutFixture: fx, pago: pago}
}

// facturaPendiente runs the address + gateway-finalize steps and returns the
// Pendiente factura waiting for the webhook.
func facturaPendiente(t *testing.T, fx *pagoFixture) uuid.UUID {
	t.Helper()
	seedProducto(fx.productoRepo, "CASCO-01", "Casco integral", 150000, 10)
	dir, err := fx.svc.RegistrarDireccion(context.Background(), nil, direccionInvitado([]dto.ItemInvitadoRequest{
		{Referencia: ptr("CASCO-01"), Cantidad: 2},
	}))
	require.NoError(t, err)
	fin, err := fx.svc.Finalizar(context.Background(), dto.FinalizarRequest{SesionToken: dir.SesionToken})
	require.NoError(t, err)
	require.Equal(t, model.EstadoPendiente, fin.Estado)
	return uuid.MustParse(fin.FacturaID)
}

// eventoFirmado builds a transaction.updated event signed with the test
// events key, the same concatenation scheme the gateway documents.
func eventoFirmado(t *testing.T, trx dto.WebhookTransaction) dto.WebhookEvent {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"transaction": trx})
	require.NoError(t, err)

	timestamp := time.Now().Unix()
	cadena := fmt.Sprintf("%s%s%d%d%s",
		trx.ID, trx.Status, trx.AmountInCents, timestamp, "test_events")
	sum := sha256.Sum256([]byte(cadena))

	return dto.WebhookEvent{
		Event:     "transaction.updated",
		Data:      data,
		Timestamp: timestamp,
		Signature: dto.WebhookSignature{
			Properties: []string{"transaction.id", "transaction.status", "transaction.amount_in_cents"},
			Checksum:   hex.EncodeToString(sum[:]),
		},
		Environment: "test",
	}
}

func TestFirmaIntegridad(t *testing.T) {
	fx := buildPagoSvc()
	ref := "d67a0a0e-5a7b-4a2e-9c1f-000000000001"
	firma := fx.pago.FirmaIntegridad(ref, 40490000, "COP")

	sum := sha256.Sum256([]byte(ref + "40490000" + "COP" + "test_integrity"))
	assert.Equal(t, hex.EncodeToString(sum[:]), firma)
}

func TestGenerarCheckout(t *testing.T) {
	fx := buildPagoSvc()
	facturaID := facturaPendiente(t, fx)

	resp, err := fx.pago.GenerarCheckout(context.Background(), dto.CheckoutPagoRequest{
		FacturaID:     facturaID.String(),
		CorreoCliente: "laura@test.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "pub_test_key", resp.PublicKey)
	assert.Equal(t, "COP", resp.Currency)
	assert.Equal(t, facturaID.String(), resp.Reference)
	// 314900 COP expressed in cents
	assert.Equal(t, int64(31490000), resp.AmountInCents)
	assert.Equal(t, fx.pago.FirmaIntegridad(resp.Reference, resp.AmountInCents, "COP"), resp.SignatureIntegrity)
	assert.Equal(t, "https://tienda.test/pago", resp.RedirectURL)
}

func TestGenerarCheckout_SoloFacturasPendientesConTotal(t *testing.T) {
	fx := buildPagoSvc()

	completada := &model.Factura{
		UsuarioID:    uuid.New(),
		Fecha:        time.Now(),
		EstadoPedido: model.EstadoCompletada,
		Total:        decimal.NewFromInt(100000),
	}
	require.NoError(t, fx.facturaRepo.CreateDraft(context.Background(), completada))
	_, err := fx.pago.GenerarCheckout(context.Background(), dto.CheckoutPagoRequest{
		FacturaID: completada.ID.String(), CorreoCliente: "x@test.com",
	})
	assert.ErrorIs(t, err, apierror.ErrInvalidState)

	// A draft that never went through finalizar has no frozen total
	sinTotal := &model.Factura{UsuarioID: uuid.New(), Fecha: time.Now(), EstadoPedido: model.EstadoPendiente}
	require.NoError(t, fx.facturaRepo.CreateDraft(context.Background(), sinTotal))
	_, err = fx.pago.GenerarCheckout(context.Background(), dto.CheckoutPagoRequest{
		FacturaID: sinTotal.ID.String(), CorreoCliente: "x@test.com",
	})
	assert.ErrorIs(t, err, apierror.ErrInvalidState)

	_, err = fx.pago.GenerarCheckout(context.Background(), dto.CheckoutPagoRequest{
		FacturaID: uuid.NewString(), CorreoCliente: "x@test.com",
	})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestProcesarWebhook_ChecksumInvalido(t *testing.T) {
	fx := buildPagoSvc()
	facturaID := facturaPendiente(t, fx)

	event := eventoFirmado(t, dto.WebhookTransaction{
		ID: "trx-1", Status: service.TransaccionAprobada,
		Reference: facturaID.String(), AmountInCents: 31490000,
	})
	event.Signature.Checksum = "deadbeef"

	err := fx.pago.ProcesarWebhook(context.Background(), event)
	assert.ErrorIs(t, err, apierror.ErrBadSignature)
	// Nothing applied
	factura, _ := fx.facturaRepo.FindByID(context.Background(), facturaID)
	assert.Equal(t, model.EstadoPendiente, factura.EstadoPedido)

	event.Signature.Checksum = ""
	assert.ErrorIs(t, fx.pago.ProcesarWebhook(context.Background(), event), apierror.ErrBadSignature)
}

func TestProcesarWebhook_AprobadoCompletaFactura(t *testing.T) {
	fx := buildPagoSvc()
	facturaID := facturaPendiente(t, fx)

	event := eventoFirmado(t, dto.WebhookTransaction{
		ID: "trx-1", Status: service.TransaccionAprobada,
		Reference: facturaID.String(), AmountInCents: 31490000, PaymentMethodType: "CARD",
	})
	require.NoError(t, fx.pago.ProcesarWebhook(context.Background(), event))

	factura, _ := fx.facturaRepo.FindByID(context.Background(), facturaID)
	assert.Equal(t, model.EstadoCompletada, factura.EstadoPedido)
	require.NotNil(t, factura.TransaccionID)
	assert.Equal(t, "trx-1", *factura.TransaccionID)
	assert.Equal(t, 8, fx.productoRepo.productos["CASCO-01"].Stock)

	// A redelivered event is acknowledged without a second decrement
	require.NoError(t, fx.pago.ProcesarWebhook(context.Background(), event))
	assert.Equal(t, 8, fx.productoRepo.productos["CASCO-01"].Stock)
}

func TestProcesarWebhook_EstadosNoAprobados(t *testing.T) {
	casos := []struct {
		status string
		estado string
	}{
		{service.TransaccionRechazada, model.EstadoRechazada},
		{service.TransaccionAnulada, model.EstadoCancelada},
		{service.TransaccionError, model.EstadoErrorPago},
	}
	for _, tc := range casos {
		t.Run(tc.status, func(t *testing.T) {
			fx := buildPagoSvc()
			facturaID := facturaPendiente(t, fx)

			event := eventoFirmado(t, dto.WebhookTransaction{
				ID: "trx-2", Status: tc.status,
				Reference: facturaID.String(), AmountInCents: 31490000,
			})
			require.NoError(t, fx.pago.ProcesarWebhook(context.Background(), event))

			factura, _ := fx.facturaRepo.FindByID(context.Background(), facturaID)
			assert.Equal(t, tc.estado, factura.EstadoPedido)
			// Stock only moves on approval
			assert.Equal(t, 10, fx.productoRepo.productos["CASCO-01"].Stock)
		})
	}
}

func TestProcesarWebhook_EstadosIntermedios(t *testing.T) {
	// PENDING updates (and any status the gateway adds later) must leave
	// the factura Pendiente: a final APPROVED can still complete it.
	for _, status := range []string{"PENDING", "IN_REVIEW"} {
		t.Run(status, func(t *testing.T) {
			fx := buildPagoSvc()
			facturaID := facturaPendiente(t, fx)

			event := eventoFirmado(t, dto.WebhookTransaction{
				ID: "trx-6", Status: status,
				Reference: facturaID.String(), AmountInCents: 31490000,
			})
			require.NoError(t, fx.pago.ProcesarWebhook(context.Background(), event))

			factura, _ := fx.facturaRepo.FindByID(context.Background(), facturaID)
			assert.Equal(t, model.EstadoPendiente, factura.EstadoPedido)
			assert.Nil(t, factura.TransaccionID)
			assert.Equal(t, 10, fx.productoRepo.productos["CASCO-01"].Stock)

			// The order can still close normally afterwards
			aprobado := eventoFirmado(t, dto.WebhookTransaction{
				ID: "trx-6", Status: service.TransaccionAprobada,
				Reference: facturaID.String(), AmountInCents: 31490000,
			})
			require.NoError(t, fx.pago.ProcesarWebhook(context.Background(), aprobado))
			factura, _ = fx.facturaRepo.FindByID(context.Background(), facturaID)
			assert.Equal(t, model.EstadoCompletada, factura.EstadoPedido)
		})
	}
}

func TestProcesarWebhook_EventosIgnorados(t *testing.T) {
	fx := buildPagoSvc()

	// Authentic event for a factura this store never issued: ack, don't retry
	event := eventoFirmado(t, dto.WebhookTransaction{
		ID: "trx-3", Status: service.TransaccionAprobada,
		Reference: uuid.NewString(), AmountInCents: 1000,
	})
	assert.NoError(t, fx.pago.ProcesarWebhook(context.Background(), event))

	// Reference that is not even a uuid
	event = eventoFirmado(t, dto.WebhookTransaction{
		ID: "trx-4", Status: service.TransaccionAprobada,
		Reference: "pedido-999", AmountInCents: 1000,
	})
	assert.NoError(t, fx.pago.ProcesarWebhook(context.Background(), event))

	// Other event types pass signature verification and stop there
	event = eventoFirmado(t, dto.WebhookTransaction{
		ID: "trx-5", Status: service.TransaccionAprobada,
		Reference: uuid.NewString(), AmountInCents: 1000,
	})
	event.Event = "nequi_token.updated"
	assert.NoError(t, fx.pago.ProcesarWebhook(context.Background(), event))
}
