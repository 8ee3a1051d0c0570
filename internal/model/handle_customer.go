package model

import "time"

// HandleCustomerData is a record produced by the handle-customer (hc) team
// when working a lead after qualification.
//
// Fields:
//  ID        – primary key identifier.
//  LeadID    – lead being handled.
//  Detail    – free-text description of the interaction.
//  HandledBy – user who performed the interaction.
//  CreatedAt – creation timestamp.
type HandleCustomerData struct {
	ID        uint64    // handle_customer_data.id
	LeadID    uint64    // handle_customer_data.lead_id
	Detail    string    // handle_customer_data.detail
	HandledBy uint64    // handle_customer_data.handled_by
	CreatedAt time.Time // handle_customer_data.created_at
}
