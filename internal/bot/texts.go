package bot

const (
	menuButtonLabel       = "📂 Меню"
	adminPanelButtonLabel = "👑 Адмін-панель"
	contactButtonLabel    = "Надіслати свій номер телефону"

	noAdminRightsText = "У вас немає прав адміністратора для цієї команди."
	noAccessText      = "У вас немає доступу до цієї команди."

	welcomeText = `🌿 Привіт!
Раді вітати тебе у навчальному боті EVA ХРК 💚

Тут ти знайдеш:
📚 корисні матеріали для розвитку,
🗓 актуальні навчальні події,
🧠 опитування для вдосконалення,
і найголовніше — підтримку на твоєму шляху в EVA 🌸

Натисни меню нижче, щоб розпочати 👇`

	mainMenuText = "📂 **Головне меню**\n\nОберіть розділ, який вас цікавить:"

	broadcastPromptText = "Будь ласка, надішліть **будь-який контент** для розсилки (текст, фото, опитування тощо).\n\n" +
		"Текст або підпис до медіа буде використано як **заголовок** для цього поста в 'Меню'.\n\n" +
		"Або /cancel для відміни."

	unsupportedContentText = "Непідтримуваний тип контенту (наприклад, стікер або локація). " +
		"Будь ласка, надішліть текст, фото, відео, документ або опитування. Або /cancel для відміни."

	chooseFolderText = "Контент отримано. Тепер, будь ласка, оберіть 'папку' для збереження:"

	archiveUnsetText = "❌ **Помилка:** Канал-архів не налаштований. Розсилка неможлива."

	draftExpiredText = "Помилка: Контент розсилки не знайдено (можливо, минув час FSM). Спробуйте /broadcast знову."

	archivePublishFailedText = "❌ **Помилка:** Не вдалося опублікувати в архівний канал. " +
		"Перевірте, чи бот є адміністратором каналу."

	postSaveFailedText = "Помилка збереження посту. Розсилка скасована."

	relayAckText = "✅ Ваше повідомлення отримано. Адміністратор незабаром відповість вам."

	replyTargetMissingText = "❌ <b>Помилка:</b> Не можу знайти користувача. Будь ласка, відповідайте (Reply) " +
		"<b>тільки</b> на повідомлення-підпис (де вказано ID) або на переслане повідомлення користувача."

	folderEmptyText   = "Ця папка поки порожня."
	folderContentText = "<b>Ось матеріали з цього розділу:</b>\n\nНатисніть на пост, щоб переглянути його."

	adminPanelText = `👑 **Адмін-панель** 👑

**Керування Контентом:**
` + "`/broadcast`" + ` - Запустити розсилку та збереження в 'Меню'.
` + "`/add_folder [Назва]`" + ` - Створити нову папку.
` + "`/delete_folder \"[Назва]\"`" + ` - Видалити папку (та всі пости в ній).
` + "`/delete_post \"[Назва]\"`" + ` - Видалити 1 пост з папки за його точною назвою.
*(Також видалення доступне кнопками ❌ в 'Меню' для адмінів)*

**Керування Користувачами:**
` + "`/check_db`" + ` - Звіт по базі.
` + "`/check_tickets`" + ` - Перевірити повідомлення без відповіді.
` + "`/find_user [Запит]`" + ` - Знайти користувача.
` + "`/delete_user [ID або Тел.]`" + ` - Видалити користувача.
` + "`/delete_segment [Список ID/Тел.]`" + ` - Видалити групу користувачів.
` + "`/export_csv`" + ` - Отримати .csv файл з базою.

**Цільові Розсилки:**
` + "`/send_to_user [ID або Тел.] [Текст]`" + ` - Надіслати повідомлення 1 користувачу.
` + "`/send_segment [Список ID/Тел.] [Текст]`" + ` - Надіслати повідомлення групі.`
)
