package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myhome/myhome/internal/api"
	"github.com/myhome/myhome/internal/session"
)

// crud builds the standard list/get/create/update/delete command group for a
// resource. Leaving an operation nil omits its subcommand.
type crud[T any] struct {
	use        string
	short      string
	filterFlag string // optional list filter, e.g. "resident"

	list   func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*T, int, error)
	get    func(a *app, ctx context.Context, id string) (*T, error)
	create func(a *app, ctx context.Context, in *T) (*T, error)
	update func(a *app, ctx context.Context, id string, in *T) (*T, error)
	del    func(a *app, ctx context.Context, id string) error

	deleteUse   string // override for the delete verb, e.g. "deactivate"
	deleteShort string
}

type listPage[T any] struct {
	Data  []*T `json:"data"`
	Total int  `json:"total"`
}

func (c crud[T]) command() *cobra.Command {
	cmd := &cobra.Command{Use: c.use, Short: c.short}

	if c.list != nil {
		var limit, offset int
		var filter string
		listCmd := &cobra.Command{
			Use:   "list",
			Short: "List " + c.use,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, func(a *app) error {
					items, total, err := c.list(a, cmd.Context(), filter, api.ListParams{Limit: limit, Offset: offset})
					if err != nil {
						return err
					}
					return printJSON(listPage[T]{Data: items, Total: total})
				})
			},
		}
		listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
		listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
		if c.filterFlag != "" {
			listCmd.Flags().StringVar(&filter, c.filterFlag, "", "Filter by "+c.filterFlag)
		}
		cmd.AddCommand(listCmd)
	}

	if c.get != nil {
		cmd.AddCommand(&cobra.Command{
			Use:   "get <id>",
			Short: "Show one record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, func(a *app) error {
					item, err := c.get(a, cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(item)
				})
			},
		})
	}

	if c.create != nil {
		var body string
		createCmd := &cobra.Command{
			Use:   "create",
			Short: "Create a record from a JSON payload",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, func(a *app) error {
					in, err := decodePayload[T](body)
					if err != nil {
						return err
					}
					item, err := c.create(a, cmd.Context(), in)
					if err != nil {
						return err
					}
					return printJSON(item)
				})
			},
		}
		createCmd.Flags().StringVar(&body, "json", "", "Resource fields as a JSON object")
		createCmd.MarkFlagRequired("json")
		cmd.AddCommand(createCmd)
	}

	if c.update != nil {
		var body string
		updateCmd := &cobra.Command{
			Use:   "update <id>",
			Short: "Update a record from a JSON payload",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, func(a *app) error {
					in, err := decodePayload[T](body)
					if err != nil {
						return err
					}
					item, err := c.update(a, cmd.Context(), args[0], in)
					if err != nil {
						return err
					}
					return printJSON(item)
				})
			},
		}
		updateCmd.Flags().StringVar(&body, "json", "", "Resource fields as a JSON object")
		updateCmd.MarkFlagRequired("json")
		cmd.AddCommand(updateCmd)
	}

	if c.del != nil {
		use, short := "delete <id>", "Delete a record"
		if c.deleteUse != "" {
			use, short = c.deleteUse+" <id>", c.deleteShort
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, func(a *app) error {
					if err := c.del(a, cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Println("OK")
					return nil
				})
			},
		})
	}

	return cmd
}

func withSession(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireSession(cmd); err != nil {
		return err
	}
	return fn(a)
}

func decodePayload[T any](body string) (*T, error) {
	in := new(T)
	if err := json.Unmarshal([]byte(body), in); err != nil {
		return nil, fmt.Errorf("invalid --json payload: %w", err)
	}
	return in, nil
}

func facilitiesCmd() *cobra.Command {
	return crud[api.Facility]{
		use:   "facilities",
		short: "Manage facilities",
		list: func(a *app, ctx context.Context, _ string, p api.ListParams) ([]*api.Facility, int, error) {
			return a.client.ListFacilities(ctx, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Facility, error) {
			return a.client.GetFacility(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Facility) (*api.Facility, error) {
			return a.client.CreateFacility(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Facility) (*api.Facility, error) {
			return a.client.UpdateFacility(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteFacility(ctx, id)
		},
	}.command()
}

func usersCmd() *cobra.Command {
	return crud[api.User]{
		use:        "users",
		short:      "Manage staff accounts",
		filterFlag: "role",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.User, int, error) {
			return a.client.ListUsers(ctx, session.Role(filter), p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.User, error) {
			return a.client.GetUser(ctx, id)
		},
		update: func(a *app, ctx context.Context, id string, in *api.User) (*api.User, error) {
			return a.client.UpdateUser(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeactivateUser(ctx, id)
		},
		deleteUse:   "deactivate",
		deleteShort: "Deactivate an account",
	}.command()
}

func residentsCmd() *cobra.Command {
	return crud[api.Resident]{
		use:        "residents",
		short:      "Manage residents",
		filterFlag: "facility",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.Resident, int, error) {
			return a.client.ListResidents(ctx, filter, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Resident, error) {
			return a.client.GetResident(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Resident) (*api.Resident, error) {
			return a.client.CreateResident(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Resident) (*api.Resident, error) {
			return a.client.UpdateResident(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteResident(ctx, id)
		},
	}.command()
}

func medicationsCmd() *cobra.Command {
	cmd := crud[api.Medication]{
		use:        "medications",
		short:      "Manage medications and administration logs",
		filterFlag: "resident",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.Medication, int, error) {
			return a.client.ListMedications(ctx, filter, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Medication, error) {
			return a.client.GetMedication(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Medication) (*api.Medication, error) {
			return a.client.CreateMedication(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Medication) (*api.Medication, error) {
			return a.client.UpdateMedication(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteMedication(ctx, id)
		},
	}.command()

	logsCmd := &cobra.Command{Use: "logs", Short: "Medication administration logs"}

	var limit, offset int
	var medicationID string
	listLogs := &cobra.Command{
		Use:   "list",
		Short: "List administration logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(a *app) error {
				logs, total, err := a.client.ListMedLogs(cmd.Context(), medicationID, api.ListParams{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}
				return printJSON(listPage[api.MedLog]{Data: logs, Total: total})
			})
		},
	}
	listLogs.Flags().IntVar(&limit, "limit", 20, "Page size")
	listLogs.Flags().IntVar(&offset, "offset", 0, "Page offset")
	listLogs.Flags().StringVar(&medicationID, "medication", "", "Filter by medication")
	logsCmd.AddCommand(listLogs)

	var body string
	recordLog := &cobra.Command{
		Use:   "record",
		Short: "Record a medication administration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(a *app) error {
				in, err := decodePayload[api.MedLog](body)
				if err != nil {
					return err
				}
				log, err := a.client.RecordMedLog(cmd.Context(), in)
				if err != nil {
					return err
				}
				return printJSON(log)
			})
		},
	}
	recordLog.Flags().StringVar(&body, "json", "", "Log fields as a JSON object")
	recordLog.MarkFlagRequired("json")
	logsCmd.AddCommand(recordLog)

	cmd.AddCommand(logsCmd)
	return cmd
}

func documentsCmd() *cobra.Command {
	return crud[api.Document]{
		use:        "documents",
		short:      "Manage documents",
		filterFlag: "resident",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.Document, int, error) {
			return a.client.ListDocuments(ctx, filter, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Document, error) {
			return a.client.GetDocument(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Document) (*api.Document, error) {
			return a.client.CreateDocument(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Document) (*api.Document, error) {
			return a.client.UpdateDocument(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteDocument(ctx, id)
		},
	}.command()
}

func contactsCmd() *cobra.Command {
	return crud[api.Contact]{
		use:        "contacts",
		short:      "Manage emergency contacts",
		filterFlag: "resident",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.Contact, int, error) {
			return a.client.ListContacts(ctx, filter, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Contact, error) {
			return a.client.GetContact(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Contact) (*api.Contact, error) {
			return a.client.CreateContact(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Contact) (*api.Contact, error) {
			return a.client.UpdateContact(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteContact(ctx, id)
		},
	}.command()
}

func carePlansCmd() *cobra.Command {
	return crud[api.CarePlan]{
		use:        "care-plans",
		short:      "Manage care plans",
		filterFlag: "resident",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.CarePlan, int, error) {
			return a.client.ListCarePlans(ctx, filter, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.CarePlan, error) {
			return a.client.GetCarePlan(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.CarePlan) (*api.CarePlan, error) {
			return a.client.CreateCarePlan(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.CarePlan) (*api.CarePlan, error) {
			return a.client.UpdateCarePlan(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteCarePlan(ctx, id)
		},
	}.command()
}

func assessmentsCmd() *cobra.Command {
	return crud[api.Assessment]{
		use:        "assessments",
		short:      "Manage assessments",
		filterFlag: "resident",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.Assessment, int, error) {
			return a.client.ListAssessments(ctx, filter, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Assessment, error) {
			return a.client.GetAssessment(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Assessment) (*api.Assessment, error) {
			return a.client.CreateAssessment(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Assessment) (*api.Assessment, error) {
			return a.client.UpdateAssessment(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteAssessment(ctx, id)
		},
	}.command()
}

func notesCmd() *cobra.Command {
	return crud[api.Note]{
		use:        "notes",
		short:      "Manage shift notes",
		filterFlag: "resident",
		list: func(a *app, ctx context.Context, filter string, p api.ListParams) ([]*api.Note, int, error) {
			return a.client.ListNotes(ctx, filter, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Note, error) {
			return a.client.GetNote(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Note) (*api.Note, error) {
			return a.client.CreateNote(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Note) (*api.Note, error) {
			return a.client.UpdateNote(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteNote(ctx, id)
		},
	}.command()
}

func formsCmd() *cobra.Command {
	return crud[api.Form]{
		use:   "forms",
		short: "Manage forms",
		list: func(a *app, ctx context.Context, _ string, p api.ListParams) ([]*api.Form, int, error) {
			return a.client.ListForms(ctx, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Form, error) {
			return a.client.GetForm(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Form) (*api.Form, error) {
			return a.client.CreateForm(ctx, in)
		},
		update: func(a *app, ctx context.Context, id string, in *api.Form) (*api.Form, error) {
			return a.client.UpdateForm(ctx, id, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteForm(ctx, id)
		},
	}.command()
}

func reportsCmd() *cobra.Command {
	return crud[api.Report]{
		use:   "reports",
		short: "Manage reports",
		list: func(a *app, ctx context.Context, _ string, p api.ListParams) ([]*api.Report, int, error) {
			return a.client.ListReports(ctx, p)
		},
		get: func(a *app, ctx context.Context, id string) (*api.Report, error) {
			return a.client.GetReport(ctx, id)
		},
		create: func(a *app, ctx context.Context, in *api.Report) (*api.Report, error) {
			return a.client.CreateReport(ctx, in)
		},
		del: func(a *app, ctx context.Context, id string) error {
			return a.client.DeleteReport(ctx, id)
		},
	}.command()
}
