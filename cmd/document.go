package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/emrgen/studydoc"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	userID    string
)

func init() {
	rootCmd.AddCommand(uploadDocCmd())
	rootCmd.AddCommand(getDocCmd())
	rootCmd.AddCommand(listDocCmd())
	rootCmd.AddCommand(deleteDocCmd())
	rootCmd.AddCommand(regenFlashcardsCmd())
	rootCmd.AddCommand(regenSummaryCmd())
}

func apiClient() *studydoc.Client {
	if serverURL == "" {
		serverURL = os.Getenv("STUDYDOC_SERVER")
	}
	if serverURL == "" {
		serverURL = "http://localhost:4001"
	}
	if userID == "" {
		userID = os.Getenv("STUDYDOC_USER")
	}

	return studydoc.NewClient(serverURL, userID)
}

func bindClientFlags(command *cobra.Command) {
	command.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server url")
	command.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id")
}

func uploadDocCmd() *cobra.Command {
	var filePath string

	var required = []string{"file"}

	command := &cobra.Command{
		Use:     "upload",
		Short:   "upload a pdf for processing",
		Example: "studydoc upload -f <file.pdf>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := apiClient()
			doc, err := client.UploadDocument(context.Background(), filePath)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document uploaded with id: %s, status: %s", doc.ID, doc.Status)
		},
	}

	command.Flags().StringVarP(&filePath, "file", "f", "", "path to the pdf file (required)")
	bindClientFlags(command)
	command.Flags().SortFlags = false

	return command
}

func getDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document with its summary and flashcards",
		Example: "studydoc get -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if _, err := uuid.Parse(docID); err != nil {
				logrus.Error("invalid document id, expected a valid uuid")
				return
			}

			client := apiClient()
			detail, err := client.GetDocument(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			doc := detail.Document
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Status", "Pages", "Cards"})
			table.Append([]string{doc.ID, doc.Title, doc.Status, strconv.Itoa(doc.Pages), strconv.Itoa(len(detail.Flashcards))})
			table.Render()

			if doc.Status == "failed" {
				printField("Failed", doc.FailReason)
				return
			}

			if detail.Summary != nil {
				printField("Summary", detail.Summary.Body)
				printField("Key Points", strings.Join(detail.Summary.KeyPoints, "; "))
			}

			if len(detail.Flashcards) > 0 {
				cards := tablewriter.NewWriter(os.Stdout)
				cards.SetHeader([]string{"#", "Question", "Difficulty"})
				for _, card := range detail.Flashcards {
					cards.Append([]string{strconv.Itoa(card.Order), card.Question, card.Difficulty})
				}
				cards.Render()
			}
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	bindClientFlags(command)
	command.Flags().SortFlags = false

	return command
}

func listDocCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "list documents",
		Run: func(cmd *cobra.Command, args []string) {
			client := apiClient()
			docs, err := client.ListDocuments(context.Background())
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Status", "Pages", "Size"})
			for _, doc := range docs {
				table.Append([]string{doc.ID, doc.Title, doc.Status, strconv.Itoa(doc.Pages), strconv.FormatInt(doc.FileSize, 10)})
			}

			table.Render()
		},
	}

	bindClientFlags(command)
	command.Flags().SortFlags = false

	return command
}

func deleteDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a document and its study material",
		Example: "studydoc delete -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := apiClient()
			if err := client.DeleteDocument(context.Background(), docID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document deleted: %s", docID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	bindClientFlags(command)
	command.Flags().SortFlags = false

	return command
}

func regenFlashcardsCmd() *cobra.Command {
	var docID string
	var count int

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "flashcards",
		Short:   "regenerate flashcards for a document",
		Example: "studydoc flashcards -d <doc-id> -n 20",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := apiClient()
			cards, err := client.RegenerateFlashcards(context.Background(), docID, count)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"#", "Question", "Difficulty"})
			for _, card := range cards {
				table.Append([]string{strconv.Itoa(card.Order), card.Question, card.Difficulty})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().IntVarP(&count, "count", "n", 20, "number of flashcards")
	bindClientFlags(command)
	command.Flags().SortFlags = false

	return command
}

func regenSummaryCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "summary",
		Short:   "regenerate the summary for a document",
		Example: "studydoc summary -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := apiClient()
			summary, err := client.RegenerateSummary(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("Summary", summary.Body)
			printField("Key Points", strings.Join(summary.KeyPoints, "; "))
			printField("Insights", strings.Join(summary.Insights, "; "))
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	bindClientFlags(command)
	command.Flags().SortFlags = false

	return command
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if cmd.Flag(required).Changed == false {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		cmd.Usage()

		return true
	}

	return false
}
