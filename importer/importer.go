// ABOUTME: CSV importers for the historical spreadsheet exports
// ABOUTME: Loads Customer_Data.csv and Service_History.csv into the entity store
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/normalize"
	"github.com/purpledash/fieldsync/store"
)

// Result reports how an import went. Skipped rows had no usable VIN.
type Result struct {
	Imported int
	Skipped  int
}

// headerIndex maps the spreadsheet's header row to column positions.
// Lookups are trimmed and case-insensitive because the exports were
// hand-maintained.
type headerIndex map[string]int

func buildHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func (idx headerIndex) get(row []string, column string) string {
	i, ok := idx[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ImportCustomerData loads a Customer_Data.csv export: one row per vehicle
// with its owner. Each usable row upserts the vehicle, the customer, and
// the legacy mirror row.
func ImportCustomerData(ctx context.Context, st store.EntityStore, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := buildHeaderIndex(header)

	result := &Result{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		vin := normalize.VIN(idx.get(row, "VIN Number"))
		if !normalize.IsValidVIN(vin) {
			log.Printf("import: line %d skipped, unusable VIN %q", line, idx.get(row, "VIN Number"))
			result.Skipped++
			continue
		}

		year, _ := strconv.Atoi(idx.get(row, "Year"))
		if err := importCustomerRow(ctx, st, vin, year, idx, row); err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}
		result.Imported++
	}
	return result, nil
}

func importCustomerRow(ctx context.Context, st store.EntityStore, vin string, year int, idx headerIndex, row []string) error {
	vehicle, err := st.FindVehicleByVIN(ctx, vin)
	if err != nil {
		return err
	}
	if vehicle == nil {
		vehicle = &models.Vehicle{VIN: vin}
		if err := st.InsertVehicle(ctx, vehicle); err != nil {
			return err
		}
	}
	vehicle.Year = year
	vehicle.Make = idx.get(row, "Make")
	vehicle.Model = idx.get(row, "Model")
	vehicle.Nickname = idx.get(row, "Vehicle Nickname")
	vehicle.LicensePlate = idx.get(row, "License Plate (optional)")
	vehicle.Odometer = idx.get(row, "Odometer at Last Service")
	vehicle.LeaseOrOwned = idx.get(row, "Lease or Owned?")
	vehicle.PrimaryUse = idx.get(row, "Primary Use")
	vehicle.ServiceHistoryLink = idx.get(row, "Service History Link")
	if err := st.UpdateVehicle(ctx, vehicle); err != nil {
		return err
	}

	phone := idx.get(row, "Phone Number")
	phoneKey := normalize.Phone(phone)
	var customer *models.Customer
	if phoneKey != "" {
		customer, err = st.FindCustomerByPhoneKey(ctx, phoneKey)
		if err != nil {
			return err
		}
	}
	if customer == nil {
		customer = &models.Customer{
			Name:     idx.get(row, "Customer Name"),
			Phone:    phone,
			PhoneKey: phoneKey,
			Email:    normalize.Email(idx.get(row, "Email")),
			Address:  idx.get(row, "Address"),
			Zip:      normalize.Zip(idx.get(row, "Zip Code")),
			Status:   idx.get(row, "Status"),
			Notes:    idx.get(row, "Notes"),
		}
		if err := st.InsertCustomer(ctx, customer); err != nil {
			return err
		}
	}

	record, err := st.FindLegacyByVIN(ctx, vin)
	if err != nil {
		return err
	}
	insert := record == nil
	if insert {
		record = &models.LegacyRecord{VIN: vin}
	}
	record.CustomerName = customer.Name
	record.Phone = customer.Phone
	record.Email = customer.Email
	record.Address = customer.Address
	record.Zip = customer.Zip
	record.Year = vehicle.Year
	record.Make = vehicle.Make
	record.Model = vehicle.Model
	record.Nickname = vehicle.Nickname
	record.ServiceHistoryLink = vehicle.ServiceHistoryLink
	if insert {
		return st.InsertLegacy(ctx, record)
	}
	return st.UpdateLegacy(ctx, record)
}

// ImportServiceHistory loads a Service_History.csv export: one row per past
// service visit, keyed by VIN.
func ImportServiceHistory(ctx context.Context, st store.EntityStore, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := buildHeaderIndex(header)

	result := &Result{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		vin := normalize.VIN(idx.get(row, "Vehicle VIN"))
		if !normalize.IsValidVIN(vin) {
			log.Printf("import: line %d skipped, unusable VIN %q", line, idx.get(row, "Vehicle VIN"))
			result.Skipped++
			continue
		}

		entry := &models.ServiceHistoryEntry{
			VIN:                    vin,
			Date:                   idx.get(row, "Date"),
			ServiceType:            idx.get(row, "Service Type"),
			ServiceNotes:           idx.get(row, "Service Notes"),
			NextRecommendedService: idx.get(row, "Next Recommended Service"),
			PhotosLink:             idx.get(row, "Photos Link"),
			Technician:             idx.get(row, "Technician"),
			Price:                  idx.get(row, "Price"),
			CustomerFeedback:       idx.get(row, "Customer Feedback"),
		}
		if err := st.InsertServiceHistory(ctx, entry); err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}
		result.Imported++
	}
	return result, nil
}
