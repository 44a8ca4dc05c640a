package kds

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn -> bagian dari koneksi websocket yang dipakai hub untuk menulis
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Hub menampung semua client KDS (cook, waiter, cashier, admin) dan menyiarkan event ke mereka
type Hub struct {
	clients map[Conn]string // conn -> role
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]string)}
}

// Register -> menambahkan connection dengan role
func (h *Hub) Register(conn Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

// Unregister -> melepaskan connection
func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// wants -> apakah layar role ini peduli dengan event tersebut.
// Layar dapur cukup event order dan item; event kas dan meja untuk floor staff.
func wants(role, event string) bool {
	if role != string(services.RoleCook) {
		return true
	}
	return strings.HasPrefix(event, "order.")
}

// Broadcast -> kirim pesan ke semua client yang relevan, client yang gagal ditulis dilepas
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("failed to marshal kds message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		if !wants(role, msg.Event) {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"role":  role,
				"event": msg.Event,
			}).Errorf("failed to send to kds client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Notify -> implementasi services.Notifier
func (h *Hub) Notify(_ context.Context, event services.Event) error {
	h.Broadcast(Message{Event: event.Name, Data: event})
	return nil
}
