package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS services (
	  id CHAR(36) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  category VARCHAR(64) NOT NULL,
	  min_quantity INT NOT NULL,
	  max_quantity INT NOT NULL,
	  unit_price_cents INT NOT NULL,
	  is_on_sale TINYINT(1) NOT NULL DEFAULT 0,
	  discounted_price_cents INT NOT NULL DEFAULT 0,
	  order_count INT NOT NULL DEFAULT 0,
	  active TINYINT(1) NOT NULL DEFAULT 1,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS orders (
	  id CHAR(36) NOT NULL,
	  order_number VARCHAR(32) NOT NULL,
	  service_id CHAR(36) NOT NULL,
	  service_name VARCHAR(255) NOT NULL,
	  target_url VARCHAR(512) NOT NULL,
	  unit_price_cents INT NOT NULL,
	  quantity INT NOT NULL,
	  total_cents INT NOT NULL,
	  discount_cents INT NOT NULL DEFAULT 0,
	  final_cents INT NOT NULL,
	  progress_current INT NOT NULL DEFAULT 0,
	  progress_target INT NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  payment_status VARCHAR(32) NOT NULL,
	  refund_state VARCHAR(32) NOT NULL DEFAULT 'none',
	  refund_reason VARCHAR(255) NULL,
	  refund_amount_cents INT NOT NULL DEFAULT 0,
	  refund_ref VARCHAR(128) NULL,
	  customer_email VARCHAR(255) NOT NULL,
	  customer_name VARCHAR(255) NULL,
	  confirmed_at DATETIME(3) NULL,
	  delivery_started_at DATETIME(3) NULL,
	  completed_at DATETIME(3) NULL,
	  cancelled_at DATETIME(3) NULL,
	  refunded_at DATETIME(3) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_orders_order_number (order_number),
	  KEY ix_orders_service_id (service_id),
	  KEY ix_orders_status (status),
	  KEY ix_orders_refund_ref (refund_ref)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS order_events (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  order_number VARCHAR(32) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  note VARCHAR(255) NULL,
	  actor VARCHAR(64) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_events_order_id (order_id, created_at),
	  CONSTRAINT fk_order_events_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payments (
	  id CHAR(36) NOT NULL,
	  payment_id VARCHAR(32) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  order_number VARCHAR(32) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  gateway_ref VARCHAR(128) NULL,
	  transaction_id VARCHAR(128) NULL,
	  method VARCHAR(32) NOT NULL,
	  amount_cents INT NOT NULL,
	  gateway_fee_cents INT NOT NULL DEFAULT 0,
	  processing_fee_cents INT NOT NULL DEFAULT 0,
	  fee_total_cents INT NOT NULL DEFAULT 0,
	  refunded_total_cents INT NOT NULL DEFAULT 0,
	  status VARCHAR(32) NOT NULL,
	  card_brand VARCHAR(32) NULL,
	  card_last4 CHAR(4) NULL,
	  bank_name VARCHAR(64) NULL,
	  virtual_account VARCHAR(64) NULL,
	  failure_code VARCHAR(64) NULL,
	  failure_message VARCHAR(255) NULL,
	  completed_at DATETIME(3) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_payments_payment_id (payment_id),
	  KEY ix_payments_order_id (order_id),
	  KEY ix_payments_order_number (order_number),
	  KEY ix_payments_status (status),
	  KEY ix_payments_provider_ref (provider, gateway_ref),
	  CONSTRAINT fk_payments_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payment_timeline (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  source VARCHAR(16) NOT NULL,
	  note VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_timeline_payment_id (payment_id, created_at),
	  CONSTRAINT fk_payment_timeline_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payment_webhook_events (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  idempotency_key VARCHAR(128) NOT NULL,
	  event_type VARCHAR(64) NOT NULL,
	  payload_json JSON NOT NULL,
	  processed TINYINT(1) NOT NULL DEFAULT 0,
	  processed_at DATETIME(3) NULL,
	  process_error VARCHAR(255) NULL,
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_webhook_events_provider_key (provider, idempotency_key),
	  KEY ix_webhook_events_payment_id (payment_id),
	  CONSTRAINT fk_webhook_events_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payment_refunds (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  refund_id VARCHAR(128) NOT NULL,
	  amount_cents INT NOT NULL,
	  reason VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_payment_refunds_payment_refund (payment_id, refund_id),
	  CONSTRAINT fk_payment_refunds_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("✓ lifecycle tables created successfully")
}
